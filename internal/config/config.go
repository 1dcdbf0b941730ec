package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr string `env:"GRPC_ADDR"` // empty disables the gRPC health server

	// DB
	Env    string `env:"ENV" envDefault:"dev"` // "dev" | "prod"
	DBPath string `env:"DB_PATH" envDefault:"./data/smartlock.db"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DeviceID          string        `env:"DEVICE_ID" envDefault:"smartlock-001"`
	MobilePrincipalID string        `env:"MOBILE_PRINCIPAL_ID" envDefault:"mobile-gateway"`
	EnrollTimeout     time.Duration `env:"ENROLL_TIMEOUT" envDefault:"30s"`

	// RejectUnknownClients closes sockets whose clientType is neither a
	// hardware nor a web value instead of treating them as hardware.
	RejectUnknownClients bool `env:"REJECT_UNKNOWN_CLIENTS" envDefault:"false"`

	// Access log retention
	AccessLogRetentionDays int `env:"ACCESS_LOG_RETENTION_DAYS" envDefault:"0"` // 0 = keep forever
	PruneIntervalHours     int `env:"PRUNE_INTERVAL_HOURS" envDefault:"6"`

	Auth Auth `envPrefix:"JWT_"`
	MQTT MQTT `envPrefix:"MQTT_"`
	WS   WS   `envPrefix:"WS_"`
}

type Auth struct {
	Secret   string        `env:"SECRET" envDefault:"devsecret"`
	TTL      time.Duration `env:"TTL" envDefault:"24h"`
	Required bool          `env:"REQUIRED" envDefault:"false"`
}

// MQTT publishing is off while Broker is empty.
type MQTT struct {
	Broker      string `env:"BROKER"`
	ClientID    string `env:"CLIENT_ID" envDefault:"smartlock-server"`
	TopicPrefix string `env:"TOPIC_PREFIX" envDefault:"smartlock"`
	Username    string `env:"USERNAME"`
	Password    string `env:"PASSWORD"`
	QoS         byte   `env:"QOS" envDefault:"1"`
}

type WS struct {
	// Path the socket endpoint is mounted on. The controller firmware dials
	// the server root.
	Path            string        `env:"PATH" envDefault:"/"`
	PingInterval    time.Duration `env:"PING_INTERVAL" envDefault:"30s"`
	PongTimeout     time.Duration `env:"PONG_TIMEOUT" envDefault:"60s"`
	MaxMessageBytes int64         `env:"MAX_MESSAGE_BYTES" envDefault:"4096"`
	SendQueue       int           `env:"SEND_QUEUE" envDefault:"32"`
}

// FromEnv reads SMARTLOCK_* variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "SMARTLOCK_"}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	if cfg.AccessLogRetentionDays < 0 {
		cfg.AccessLogRetentionDays = 0
	}
	if cfg.PruneIntervalHours <= 0 {
		cfg.PruneIntervalHours = 6
	}
	cfg.WS.Path = strings.TrimSpace(cfg.WS.Path)
	if !strings.HasPrefix(cfg.WS.Path, "/") {
		cfg.WS.Path = "/" + cfg.WS.Path
	}
	cfg.DeviceID = strings.TrimSpace(cfg.DeviceID)
	if cfg.DeviceID == "" {
		return Config{}, fmt.Errorf("SMARTLOCK_DEVICE_ID must not be empty")
	}
	if cfg.Env == "prod" && cfg.Auth.Required && cfg.Auth.Secret == "devsecret" {
		return Config{}, fmt.Errorf("SMARTLOCK_JWT_SECRET must be set when auth is required in prod")
	}
	return cfg, nil
}
