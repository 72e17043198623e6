package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicredit-registro/internal/common/config"
	"servicredit-registro/internal/common/database"
	"servicredit-registro/internal/common/logger"
	"servicredit-registro/internal/common/observability"
	"servicredit-registro/internal/session"
	"servicredit-registro/internal/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const sessionSweepInterval = time.Minute

func serveCmd(configPath *string) *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the registration form web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			if address != "" {
				cfg.Server.Address = address
			}
			return serve(cfg)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "listen address (overrides server.address)")
	return cmd
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func newSessionStore(cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (session.Store, error) {
	ttl := config.GetDuration(cfg.Session.TTL)

	if cfg.Session.Store != "redis" {
		return session.NewMemoryStore(ttl, sessionSweepInterval, log), nil
	}

	rc, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		return nil, err
	}
	err = retryWithBackoff(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return rc.Ping(ctx)
	}, 5, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	log.Debug("Redis session store connected", map[string]interface{}{"address": cfg.Database.Redis.Address})
	return session.NewRedisStore(rc.GetClient(), rc.KeyPrefix, ttl), nil
}

func serve(cfg *config.Config) error {
	zapLog, log := newLogger(cfg)
	defer zapLog.Sync()

	zapLog.Info("Starting registration form server...",
		zap.String("variant", cfg.Form.Variant),
		zap.String("sessionStore", cfg.Session.Store),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		return fmt.Errorf("observability init failed: %w", err)
	}
	defer obs.Shutdown()

	form, err := formDependencies(cfg, log)
	if err != nil {
		return err
	}
	form.Recorder = obs

	store, err := newSessionStore(cfg, zapLog, log)
	if err != nil {
		return fmt.Errorf("session store init failed: %w", err)
	}
	ttl := config.GetDuration(cfg.Session.TTL)
	sessions := session.NewManager(store, form, ttl, log)
	defer sessions.Close()

	handler, err := web.NewHandler(web.Config{
		CookieName:   cfg.Session.CookieName,
		CookieSecure: cfg.Session.CookieSecure,
		SessionTTL:   ttl,
		DocumentsDir: cfg.Server.DocumentsDir,
	}, web.Dependencies{
		Sessions:      sessions,
		Form:          form,
		Logger:        log,
		Observability: obs,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, sessionSweepInterval)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      handler.Routes(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	// --- Graceful Shutdown ---
	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error during HTTP shutdown", zap.Error(err))
	}

	zapLog.Info("Registration form server stopped gracefully")
	return nil
}
