package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"pocketflix-portal/internal/actor"
	"pocketflix-portal/internal/backend"
	"pocketflix-portal/internal/blob"
	"pocketflix-portal/internal/config"
	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/identity"
	"pocketflix-portal/internal/infra/memory"
	inframinio "pocketflix-portal/internal/infra/minio"
	"pocketflix-portal/internal/infra/postgres"
	infraredis "pocketflix-portal/internal/infra/redis"
	"pocketflix-portal/internal/queries"
	qc "pocketflix-portal/internal/querycache"
	"pocketflix-portal/internal/quizflow"
	transport "pocketflix-portal/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the portal server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	service, closeBackend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackend()

	accessor := actor.NewAccessor(func(ctx context.Context) (actor.Backend, error) {
		return service, nil
	}, config.TTLDuration(cfg.Backend.DialRetry, 2*time.Second), logger)
	accessor.Start(ctx)

	var store qc.Store = qc.NewMemoryStore()
	if cfg.Cache.Store == "redis" {
		store = infraredis.NewQueryStore(redisClient, config.TTLDuration(cfg.Cache.TTL, 10*time.Minute), logger)
	}
	cache := qc.New(store,
		qc.WithRetryDelay(config.TTLDuration(cfg.Cache.RetryDelay, time.Second)),
		qc.WithLogger(logger),
	)
	go func() {
		if err := cache.Run(ctx); err != nil {
			logger.Error("cache invalidation relay stopped", "err", err)
		}
	}()

	objects, err := openBlobStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	uploader := blob.NewUploader(objects, cfg.Blob.BaseURL)
	media := memory.NewBlobCache(uploader, config.TTLDuration(cfg.Blob.CacheTTL, 10*time.Minute), int(cfg.Blob.CacheMaxBytes))

	ident, auth, err := openIdentity(ctx, cfg, logger)
	if err != nil {
		return err
	}

	attemptTTL := config.TTLDuration(cfg.Attempts.TTL, time.Hour)
	var attempts quizflow.Repository = memory.NewAttemptStore(attemptTTL)
	if cfg.Attempts.Store == "redis" {
		attempts = infraredis.NewAttemptStore(redisClient, attemptTTL)
	}

	client := queries.New(accessor, cache, uploader, queries.Config{
		StaleTime: config.TTLDuration(cfg.Cache.StaleTime, 30*time.Second),
		Retry:     cfg.Cache.Retry,
		Wait:      config.TTLDuration(cfg.Cache.Wait, 0),
	}, logger)

	handler := transport.NewServer(transport.Deps{
		Client:   client,
		Flow:     quizflow.NewService(attempts, logger),
		Identity: ident,
		Auth:     auth,
		Uploader: uploader,
		Objects:  objects,
		Media:    media,
		Logger:   logger,
	}).Handler()
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting portal", "addr", server.Addr, "backend", cfg.Backend.Driver, "auth", cfg.Auth.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.TTLDuration(cfg.Server.ShutdownTimeout, 5*time.Second))
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openBackend builds the actor implementation and grants the configured admins.
func openBackend(ctx context.Context, cfg config.Config, logger *slog.Logger) (*backend.Service, func(), error) {
	admins := make([]domain.Principal, 0, len(cfg.Backend.Admins))
	for _, a := range cfg.Backend.Admins {
		if a = strings.TrimSpace(a); a != "" {
			admins = append(admins, a)
		}
	}

	var (
		repo    backend.Repository
		closeFn = func() {}
	)
	switch cfg.Backend.Driver {
	case "postgres":
		if cfg.Postgres.Migrate {
			if err := runMigrations(ctx, cfg); err != nil {
				return nil, nil, err
			}
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		repo, closeFn = postgres.NewRepository(pool), pool.Close
	default:
		repo = memory.NewRepository()
	}

	service := backend.NewService(repo)
	if err := service.Bootstrap(ctx, admins); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("bootstrap admins: %w", err)
	}
	if cfg.Backend.Seed && cfg.Backend.Driver == "memory" {
		var admin domain.Principal
		if len(admins) > 0 {
			admin = admins[0]
		}
		if err := seed(ctx, service, admin); err != nil {
			closeFn()
			return nil, nil, err
		}
		logger.Info("sample catalog loaded")
	}
	return service, closeFn, nil
}

func openBlobStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (blob.Store, error) {
	if cfg.Blob.Driver != "minio" {
		return memory.NewBlobStore(), nil
	}
	return inframinio.New(ctx, inframinio.Config{
		Endpoint:        cfg.Blob.Endpoint,
		AccessKeyID:     cfg.Blob.AccessKey,
		SecretAccessKey: cfg.Blob.SecretKey,
		Bucket:          cfg.Blob.Bucket,
		UseSSL:          cfg.Blob.Secure,
	}, logger)
}

// openIdentity returns the request identity provider and, for interactive
// modes, the browser sign-in routes.
func openIdentity(ctx context.Context, cfg config.Config, logger *slog.Logger) (identity.Provider, transport.AuthRoutes, error) {
	switch cfg.Auth.Mode {
	case "jwt":
		p, err := identity.NewJWTProvider(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Cookie)
		if err != nil {
			return nil, nil, err
		}
		return p, nil, nil
	case "oidc":
		p, err := identity.NewOIDCProvider(ctx, identity.OIDCConfig{
			Issuer:       cfg.Auth.Issuer,
			ClientID:     cfg.Auth.ClientID,
			ClientSecret: cfg.Auth.ClientSecret,
			RedirectURL:  cfg.Auth.RedirectURL,
			Cookie:       cfg.Auth.Cookie,
			Secure:       cfg.Auth.SecureCookie,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	default:
		return identity.None{}, nil, nil
	}
}
