package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"shoplist/go-backend/internal/bootstrap/serverconfig"
	"shoplist/go-backend/internal/composition/daemonserver"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "shoplist-daemon: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("shoplist-daemon", pflag.ContinueOnError)
	showVersion := flags.Bool("version", false, "print version and exit")
	configPath := flags.StringP("config", "c", "", "path to config.yaml (optional)")
	host := flags.String("host", "", "listen host override")
	port := flags.IntP("port", "p", -1, "listen port override (0 picks a free port)")
	store := flags.String("store", "", "item store override: memory | sqlite")
	sqliteDSN := flags.String("sqlite-dsn", "", "SQLite DSN when --store=sqlite")
	logLevel := flags.String("log-level", "", "log level override: debug | info | warn | error")
	logFormat := flags.String("log-format", "", "log format override: json | text")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Printf("shoplist-daemon version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return nil
	}

	cfg, err := serverconfig.LoadFromPath(*configPath)
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port >= 0 {
		cfg.Server.Port = *port
	}
	if *store != "" {
		cfg.Store.Driver = *store
	}
	if *sqliteDSN != "" {
		cfg.Store.SQLiteDSN = *sqliteDSN
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	rt, err := daemonserver.New(cfg, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	rt.Logger.Info("shoplist-daemon starting", "version", version, "addr", cfg.Addr(), "store", cfg.Store.Driver)
	if err := rt.Run(ctx); err != nil {
		return err
	}
	rt.Logger.Info("shoplist-daemon stopped")
	return nil
}
