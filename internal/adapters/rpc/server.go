package rpc

import (
	"log/slog"
	"time"

	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/internal/platform/metrics"
)

const (
	DefaultAddr          = "127.0.0.1:3000"
	SocketPath           = "/socket"
	HealthPath           = "/healthz"
	MetricsPath          = "/metrics"
	DefaultPingInterval  = 50 * time.Second
	DefaultPongWait      = 60 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
	DefaultMaxFrameBytes = int64(1 << 20) // 1 MiB
)

type Options struct {
	// Addr is host:port; port 0 binds an ephemeral port.
	Addr           string
	AllowedOrigins []string
	// AllowLoopbackOrigins admits browser origins on localhost/127.0.0.1/::1.
	AllowLoopbackOrigins bool
	RateLimit            RateLimitOptions
	PingInterval         time.Duration
	PongWait             time.Duration
	WriteTimeout         time.Duration
	MaxFrameBytes        int64
}

func DefaultOptions() Options {
	return Options{
		Addr:                 DefaultAddr,
		AllowLoopbackOrigins: true,
		RateLimit:            DefaultRateLimitOptions(),
		PingInterval:         DefaultPingInterval,
		PongWait:             DefaultPongWait,
		WriteTimeout:         DefaultWriteTimeout,
		MaxFrameBytes:        DefaultMaxFrameBytes,
	}
}

func (o Options) normalized() Options {
	if o.Addr == "" {
		o.Addr = DefaultAddr
	}
	if o.PongWait <= 0 {
		o.PongWait = DefaultPongWait
	}
	if o.PingInterval <= 0 || o.PingInterval >= o.PongWait {
		o.PingInterval = o.PongWait * 5 / 6
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.MaxFrameBytes <= 0 {
		o.MaxFrameBytes = DefaultMaxFrameBytes
	}
	return o
}

type ServerDeps struct {
	Service contracts.ShoppingListService
	Logger  *slog.Logger
	Metrics *metrics.ServerMetrics
}
