package config

import "time"

type Config struct {
	Server    ServerConfig
	Transport TransportConfig
	Hub       HubConfig
	Log       LogConfig
}

type ServerConfig struct {
	Address         string
	Auth            AuthConfig
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
}

type TransportConfig struct {
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
}

type HubConfig struct {
	// SendBuffer is the per-user delivery buffer capacity. When a consumer
	// falls this far behind, the oldest buffered frames are dropped.
	SendBuffer int `mapstructure:"sendBuffer"`
}

type LogConfig struct {
	Level string
}
