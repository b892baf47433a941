package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ReyCannavaro/urbangrow/config"
	"github.com/ReyCannavaro/urbangrow/controllers"
	"github.com/ReyCannavaro/urbangrow/events"
	"github.com/ReyCannavaro/urbangrow/metrics"
	"github.com/ReyCannavaro/urbangrow/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API server",
	Long: `Run the REST API server. The database connection is supervised: transient
failures are retried every DATABASE_RETRY_DELAY while the API answers 500 and
/healthz answers 503. A non-transient connection error stops the process.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (overrides PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := cfg.Port
	if servePort != "" {
		port = servePort
	}
	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	supervisor := config.NewSupervisor(
		config.NewDialer(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DatabaseMaxOpenConns, logger),
		config.SupervisorOptions{
			RetryDelay:     cfg.DatabaseRetryDelay,
			HealthInterval: cfg.DatabaseHealthInterval,
			OnConnect:      store.EnsureSchema,
			OnStateChange: func(s config.ConnState) {
				metrics.DatabaseState.Set(float64(s))
			},
		},
		logger,
	)
	defer supervisor.Close()

	go func() {
		if err := supervisor.Run(ctx); err != nil {
			logger.Fatal("database unavailable", zap.String("driver", cfg.DatabaseDriver), zap.Error(err))
		}
	}()

	hub := controllers.NewHub(logger)
	defer hub.Close()

	publishers := events.Multi{hub}
	if cfg.NATSURL != "" {
		nc, err := events.NATSConnect(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		defer nc.Close()
		publishers = append(publishers, nc)
	}

	h := controllers.NewController(store.New(supervisor), publishers, supervisor, logger)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           controllers.NewRouter(h, controllers.RouterOptions{CORSOrigins: cfg.CORSOrigins, Hub: hub}, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("driver", cfg.DatabaseDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
