package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/silvanatrade/distributor-portal/internal/app"
	"github.com/silvanatrade/distributor-portal/internal/config"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// main runs the CLI entrypoint and exits on unrecoverable command errors.
func main() {
	if errRun := run(os.Args[1:]); errRun != nil {
		log.WithError(errRun).Error("command failed")
		os.Exit(1)
	}
}

// run parses flags, loads config, and starts the server or a one-shot
// migration.
func run(args []string) error {
	fs := flag.NewFlagSet("portal", flag.ContinueOnError)
	cfgPath := fs.String("config", "", "config file path (or env PORTAL_CONFIG_PATH)")
	port := fs.Int("port", 0, "server port override")
	migrateOnly := fs.Bool("migrate", false, "run schema migrations and exit")
	if errParse := fs.Parse(args); errParse != nil {
		return errParse
	}

	// Missing .env is fine; environment variables win either way.
	_ = godotenv.Load()

	cfg, errLoad := config.Load(config.ResolveConfigPath(*cfgPath))
	if errLoad != nil {
		return errLoad
	}
	if *port != 0 {
		if *port < 0 || *port > 65535 {
			return fmt.Errorf("invalid port: %d", *port)
		}
		cfg.Server.Port = *port
	}

	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *migrateOnly {
		return app.Migrate(ctx, cfg)
	}
	return app.RunServer(ctx, cfg)
}

// setupLogging configures the level and optional rotating file output.
func setupLogging(cfg *config.Config) {
	level, errLevel := log.ParseLevel(cfg.Log.Level)
	if errLevel != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if file := strings.TrimSpace(cfg.Log.File); file != "" {
		rotator := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}
}
