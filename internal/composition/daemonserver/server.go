package daemonserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"shoplist/go-backend/internal/adapters/rpc"
	"shoplist/go-backend/internal/bootstrap/serverconfig"
	"shoplist/go-backend/internal/domains/contracts"
	"shoplist/go-backend/internal/domains/shoppinglist"
	"shoplist/go-backend/internal/platform/metrics"
	"shoplist/go-backend/internal/platform/privacylog"
	"shoplist/go-backend/internal/storage"
)

// Runtime is a fully wired daemon: store, service and transport.
type Runtime struct {
	Server  *rpc.Server
	Store   contracts.ItemRepository
	Logger  *slog.Logger
	Metrics *metrics.ServerMetrics
}

// New wires config -> logger -> metrics -> store -> service -> server.
func New(cfg serverconfig.Config, logOut io.Writer) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger, err := NewLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}
	m := metrics.New()

	store, err := NewItemStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	svc, err := shoppinglist.NewService(shoppinglist.ServiceDeps{
		Repository: store,
		Rules: shoppinglist.Rules{
			TitleMinLength:   cfg.Validation.TitleMin,
			TitleMaxLength:   cfg.Validation.TitleMax,
			RequireCompleted: cfg.Validation.RequireCompleted,
		},
		Logger: logger,
		RecordError: func(category string, _ error) {
			m.RecordError(category)
		},
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	srv, err := rpc.NewServer(ServerOptions(cfg), rpc.ServerDeps{
		Service: svc,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &Runtime{Server: srv, Store: store, Logger: logger, Metrics: m}, nil
}

// Run serves until ctx is done and then releases the store.
func (r *Runtime) Run(ctx context.Context) error {
	runErr := r.Server.Run(ctx)
	closeErr := r.Store.Close()
	return errors.Join(runErr, closeErr)
}

func ServerOptions(cfg serverconfig.Config) rpc.Options {
	opts := rpc.DefaultOptions()
	opts.Addr = cfg.Addr()
	opts.AllowedOrigins = cfg.Server.AllowedOrigins
	opts.RateLimit = rpc.RateLimitOptions{
		Enabled: cfg.RateLimit.Enabled,
		RPS:     cfg.RateLimit.RPS,
		Burst:   cfg.RateLimit.Burst,
	}
	return opts
}

func NewItemStore(cfg serverconfig.StoreConfig) (contracts.ItemRepository, error) {
	switch cfg.Driver {
	case "", serverconfig.StoreDriverMemory:
		return storage.NewMemoryItemStore(), nil
	case serverconfig.StoreDriverSQLite:
		return storage.NewSQLiteItemStore(cfg.SQLiteDSN)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// NewLogger builds the JSON or text handler wrapped by the privacy sanitizer.
func NewLogger(cfg serverconfig.LogConfig, out io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if raw := strings.TrimSpace(cfg.Level); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "", serverconfig.LogFormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	case serverconfig.LogFormatText:
		handler = slog.NewTextHandler(out, opts)
	default:
		return nil, fmt.Errorf("unsupported log format %q", cfg.Format)
	}
	return slog.New(privacylog.WrapHandler(handler)), nil
}
