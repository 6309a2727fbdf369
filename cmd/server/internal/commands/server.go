package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/taskforge/taskforge/internal/auth"
	"github.com/taskforge/taskforge/internal/logger"
	"github.com/taskforge/taskforge/internal/server"
	"github.com/taskforge/taskforge/internal/service"
	"github.com/taskforge/taskforge/internal/store"
	memorystore "github.com/taskforge/taskforge/internal/store/memory"
	postgresstore "github.com/taskforge/taskforge/internal/store/postgres"
	"github.com/taskforge/taskforge/internal/telemetry"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"TASKFORGE_LISTEN"`
	Cert   string `help:"path to TLS cert file" default:"" env:"TASKFORGE_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"TASKFORGE_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"https://localhost" env:"TASKFORGE_CORS_ORIGINS"`

	// Token configuration
	TokenSecret string        `help:"secret key for HMAC signing of bearer tokens" env:"TASKFORGE_TOKEN_SECRET"`
	TokenIssuer string        `help:"issuer claim for bearer tokens" default:"taskforge" env:"TASKFORGE_TOKEN_ISSUER"`
	TokenTTL    time.Duration `help:"bearer token lifetime" default:"2h" env:"TASKFORGE_TOKEN_TTL"`

	// Admin bootstrap configuration
	AdminPassword string `help:"password for the default admin account created at first boot" env:"TASKFORGE_ADMIN_PASSWORD"`

	// Development and operational modes
	Tracing bool `help:"enable tracing" default:"false" env:"TASKFORGE_TRACING"`

	// Store configuration
	StoreType     string             `help:"store type (memory or postgres)" default:"memory" env:"TASKFORGE_STORE_TYPE" enum:"memory,postgres"`
	PostgresStore PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *ServerCmd) Validate() error {
	if c.TokenSecret == "" {
		return errors.New("token secret is required (--token-secret or TASKFORGE_TOKEN_SECRET)")
	}
	if len(c.TokenSecret) < 32 {
		return errors.New("token secret must be at least 32 bytes (256 bits) for HMAC-SHA256")
	}
	if c.AdminPassword == "" {
		return errors.New("admin password is required (--admin-password or TASKFORGE_ADMIN_PASSWORD)")
	}
	return nil
}

type PostgresStoreFlags struct {
	// Connection Configuration
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32 `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"5"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	// Migration Configuration
	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"TASKFORGE_POSTGRES_AUTO_MIGRATE"`
}

func (c *ServerCmd) Run(globals *Globals) error {
	log := logger.Setup(globals.Debug)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, "taskforge-server", globals.Version)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	var (
		accountStore store.AccountStore
		taskStore    store.TaskStore
	)

	switch c.StoreType {
	case "postgres":
		if c.PostgresStore.ConnString == "" {
			return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
		}

		poolCfg := &postgresstore.PoolConfig{
			ConnString:      c.PostgresStore.ConnString,
			MaxConns:        c.PostgresStore.MaxConns,
			MinConns:        c.PostgresStore.MinConns,
			MaxConnLifetime: c.PostgresStore.MaxConnLifetime,
			MaxConnIdleTime: c.PostgresStore.MaxConnIdleTime,
		}
		pool, err := postgresstore.NewPool(ctx, poolCfg)
		if err != nil {
			return fmt.Errorf("failed to create connection pool: %w", err)
		}
		defer pool.Close()

		if c.PostgresStore.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		accountStore = postgresstore.NewAccountStore(pool)
		taskStore = postgresstore.NewTaskStore(pool)
		log.Info().Msg("Using PostgreSQL store")

	case "memory":
		accountStore = memorystore.NewAccountStore()
		taskStore = memorystore.NewTaskStore()
		log.Warn().Msg("Using in-memory store, all data is lost on restart")

	default:
		return fmt.Errorf("unknown store type: %s", c.StoreType)
	}

	tokens, err := auth.NewTokenIssuer([]byte(c.TokenSecret), c.TokenIssuer, c.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	hasher := auth.NewPasswordHasher()
	authenticator := auth.NewAuthenticator(tokens, accountStore)

	authSvc := service.NewAuthService(accountStore, hasher, tokens)
	userSvc := service.NewUserService(accountStore, hasher)
	taskSvc := service.NewTaskService(taskStore)

	if err := authSvc.BootstrapAdmin(ctx, c.AdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	srv := server.NewServer(authenticator, authSvc, userSvc, taskSvc)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   c.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	httpServer := configureHTTPServer(c.Listen, corsMiddleware.Handler(srv.Handler(log)))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", c.Listen).Msg("Listening for HTTP connections")
		if c.Cert != "" && c.Key != "" {
			errCh <- httpServer.ListenAndServeTLS(c.Cert, c.Key)
			return
		}
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
	}

	return nil
}
