package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jesus-bazan-entel/ApoloTeams/internal/hub"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/server/middleware"
	"github.com/jesus-bazan-entel/ApoloTeams/internal/session"
	"github.com/jesus-bazan-entel/ApoloTeams/pkg/config"
	"github.com/jesus-bazan-entel/ApoloTeams/pkg/transport"
)

// App runs the HTTP surface of the hub: the /ws upgrade endpoint, the
// internal notify endpoints for events born outside the socket, health, and
// metrics.
type App struct {
	logger *slog.Logger
	hub    *hub.Hub
	collab session.Collaborators
	config *config.Config
	http   *http.Server

	mu    sync.Mutex
	conns map[*transport.Connection]struct{}
	wg    sync.WaitGroup

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config, h *hub.Hub, collab session.Collaborators) *App {
	app := &App{
		logger: logger,
		hub:    h,
		collab: collab,
		config: cfg,
		conns:  make(map[*transport.Connection]struct{}),
		ctx:    rootCtx,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", app.upgradeHandler)
	mux.HandleFunc("GET /healthz", app.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /internal/calls/started", app.callStartedHandler)
	mux.HandleFunc("POST /internal/calls/{id}/ended", app.callEndedHandler)
	mux.HandleFunc("POST /internal/calls/{id}/participants", app.participantJoinedHandler)
	mux.HandleFunc("POST /internal/users/{id}/notifications", app.notifyUserHandler)
	mux.HandleFunc("POST /internal/channels/{id}/messages/updated", app.messageUpdatedHandler)
	mux.HandleFunc("POST /internal/channels/{id}/messages/deleted", app.messageDeletedHandler)

	handler := middleware.Chain(mux,
		middleware.RequestMetadataMiddleware(),
		middleware.NewRequestLogger(logger),
	)

	app.http = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: handler,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}
	return app
}

func (a *App) Run() error {
	g, ctx := errgroup.WithContext(a.ctx)

	g.Go(func() error {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return a.Shutdown()
	})

	return g.Wait()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	reqMeta, _ := middleware.ReqMetadataFrom(r.Context())
	connLogger := a.logger
	if reqMeta != nil {
		connLogger = a.logger.With(slog.String("remoteAddr", reqMeta.IP))
	}

	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(r.Context(), wsConn, transport.Config(a.config.Transport), connLogger)
	session.New(conn, a.hub, a.collab, connLogger)

	a.track(conn)
	defer a.untrack(conn)

	conn.Run()
	<-conn.Done()
}

func (a *App) track(conn *transport.Connection) {
	a.wg.Add(1)
	a.mu.Lock()
	a.conns[conn] = struct{}{}
	a.mu.Unlock()
}

func (a *App) untrack(conn *transport.Connection) {
	a.mu.Lock()
	delete(a.conns, conn)
	a.mu.Unlock()
	a.wg.Done()
}

// Shutdown stops accepting requests, closes every live connection, and waits
// for their cleanup to finish.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("Closing all active connections...")
	a.mu.Lock()
	conns := make([]*transport.Connection, 0, len(a.conns))
	for conn := range a.conns {
		conns = append(conns, conn)
	}
	a.mu.Unlock()
	for _, conn := range conns {
		conn.Close(errors.New("graceful shutdown"))
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		a.logger.Info("Server shut down gracefully.")
		return nil
	case <-time.After(a.config.Server.ShutdownTimeout):
		a.logger.Warn("Shutdown timeout reached before all connections finished")
		return context.DeadlineExceeded
	}
}
