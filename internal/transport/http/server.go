package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"devconnector/internal/cache"
	"devconnector/internal/config"
	"devconnector/internal/database"
	"devconnector/internal/handler"
	"devconnector/internal/logging"
	"devconnector/internal/queue"
	rdb "devconnector/internal/redis"
	"devconnector/internal/repository"
	"devconnector/internal/service"
	"devconnector/internal/worker"
)

// dependencies are the stores and optional integrations the services run on.
// Nil optional fields disable the matching feature.
type dependencies struct {
	users    repository.UserRepository
	profiles repository.ProfileRepository
	posts    repository.PostRepository

	timeline    cache.TimelineCache
	githubCache cache.GitHubCache
	publisher   queue.Publisher
	media       *service.MediaService
	httpClient  *stdhttp.Client
}

// newRouter builds services and handlers on top of deps.
func newRouter(cfg *config.Config, deps dependencies) chi.Router {
	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(deps.users, cfg.DefaultAvatarURL)
	profileService := service.NewProfileService(deps.profiles, deps.users, deps.posts, deps.publisher, deps.media)
	postService := service.NewPostService(deps.posts, deps.users, deps.timeline, deps.publisher)
	githubService := service.NewGitHubService(deps.httpClient, cfg.GitHubAPIURL, cfg.GitHubClientID, cfg.GitHubClientSecret, deps.githubCache)

	return NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService, deps.media),
		ProfileHandler: handler.NewProfileHandler(profileService),
		PostHandler:    handler.NewPostHandler(postService),
		GitHubHandler:  handler.NewGitHubHandler(githubService),
		JWTSecret:      cfg.JWTSecret,
		CORSOrigins:    cfg.CORSOrigins,
	})
}

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Storage
	var deps dependencies
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory storage, data is lost on restart")
		store := repository.NewMemoryStore()
		deps.users, deps.profiles, deps.posts = store.Users(), store.Profiles(), store.Posts()
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if err := database.Migrate(db, cfg.MigrationsDir, cfg.DBName); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		deps.users = repository.NewUserRepository(db)
		deps.profiles = repository.NewProfileRepository(db)
		deps.posts = repository.NewPostRepository(db)
	}

	// 3. Redis: timeline cache, event stream and workers
	var manager *worker.Manager
	if cfg.RedisURL != "" {
		client, err := rdb.Connect(ctx, cfg.RedisURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()

		deps.timeline = cache.NewTimelineCache(client.Client)
		deps.githubCache = cache.NewGitHubCache(client.Client)
		deps.publisher = queue.NewPublisher(client.Client)

		managerCfg := worker.DefaultManagerConfig()
		managerCfg.WorkerCount = cfg.WorkerCount
		manager = worker.NewManager(queue.NewConsumer(client.Client), worker.NewHandler(deps.timeline), managerCfg)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("failed to start workers: %w", err)
		}
		defer manager.Stop()
	} else {
		log.Info().Msg("REDIS_URL not set, timeline cache and workers disabled")
	}

	// 4. Avatar uploads
	if cfg.MediaEnabled() {
		media, err := service.NewMediaService(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to init media service: %w", err)
		}
		deps.media = media
	} else {
		log.Info().Msg("R2 not configured, avatar uploads disabled")
	}

	// 5. Serve until SIGINT/SIGTERM
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           newRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("storage", cfg.StorageDriver).Msg("starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
