// Package app wires configuration, storage, and services into the
// running portal server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/silvanatrade/distributor-portal/internal/activity"
	"github.com/silvanatrade/distributor-portal/internal/auth"
	"github.com/silvanatrade/distributor-portal/internal/config"
	"github.com/silvanatrade/distributor-portal/internal/currency"
	"github.com/silvanatrade/distributor-portal/internal/db"
	"github.com/silvanatrade/distributor-portal/internal/http/api"
	"github.com/silvanatrade/distributor-portal/internal/http/api/response"
	"github.com/silvanatrade/distributor-portal/internal/mailer"
	"github.com/silvanatrade/distributor-portal/internal/ratelimit"
	"github.com/silvanatrade/distributor-portal/internal/storage"

	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful shutdown after the context ends.
const shutdownTimeout = 10 * time.Second

// Migrate opens the database and runs schema migrations.
func Migrate(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the portal HTTP server and blocks until the context
// is cancelled or the listener fails.
func RunServer(ctx context.Context, cfg *config.Config) error {
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errSeed := db.SeedSuperAdmin(conn, cfg.SeedAdmin.Email, cfg.SeedAdmin.Password); errSeed != nil {
		return errSeed
	}

	mediaStore, errMedia := storage.NewMediaStore(cfg.Media.Dir)
	if errMedia != nil {
		return errMedia
	}

	recorder := activity.NewRecorder(conn)
	authService := auth.NewService(conn, cfg.JWT, recorder, mailer.New(cfg))
	currencyService := currency.NewService(conn, currency.NewNBPClient(cfg.Currency))
	limiter := ratelimit.NewLoginLimiter(cfg.LoginThrottle.RPS, cfg.LoginThrottle.Burst)

	if refresher := currency.NewRefresher(conn, currencyService); refresher != nil {
		refresher.Start(ctx)
	}

	if cfg.Server.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithField("panic", recovered).Error("handler panic")
		response.Abort(c, http.StatusInternalServerError, "Something went wrong")
	}))
	engine.Use(requestLogMiddleware())

	api.RegisterRoutes(engine, api.Deps{
		DB:       conn,
		Config:   cfg,
		Auth:     authService,
		Currency: currencyService,
		Recorder: recorder,
		Media:    mediaStore,
		Limiter:  limiter,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting portal server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
		return errShutdown
	}
	log.Info("portal server stopped")
	return nil
}

// requestLogMiddleware logs one structured line per request.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}).Info("request")
	}
}
