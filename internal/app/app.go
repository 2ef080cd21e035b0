package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/clsdenji/Spark/internal/catalog"
	"github.com/clsdenji/Spark/internal/config"
	"github.com/clsdenji/Spark/internal/httpserver"
	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/list"
	"github.com/clsdenji/Spark/internal/logger"
	"github.com/clsdenji/Spark/internal/redis"
	"github.com/clsdenji/Spark/internal/storage"
	"github.com/clsdenji/Spark/internal/version"
	"github.com/clsdenji/Spark/internal/ws"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	history     *list.List
	saved       *list.List
	catalog     *catalog.Catalog
	reloader    *catalog.Reloader
	hub         *ws.Hub
	hubCancel   context.CancelFunc
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Pick the storage backend early - fail fast if Redis is configured
	// but unavailable
	adapter, redisClient := newAdapter(cfg, loggerClient)

	// The two observable persisted lists: what the user searched for and
	// what they bookmarked. Same machinery, different identity rules.
	history := list.NewHistory(adapter, loggerClient, cfg.HistoryCap, cfg.PersistDebounce)
	saved := list.NewSaved(adapter, loggerClient, cfg.SavedCap, cfg.PersistDebounce)

	// The parking spot catalog is optional: without a spots file the
	// service still stores history and bookmarks.
	var (
		cat           *catalog.Catalog
		reloader      *catalog.Reloader
		reloadTrigger chan struct{}
	)
	if cfg.SpotsFile != "" {
		loggerClient.Info("spots file configured, initializing catalog",
			logger.String("file", cfg.SpotsFile))
		cat = catalog.NewCatalog()
		reloadTrigger = make(chan struct{}, 1)
		reloader = catalog.NewReloader(
			cfg.SpotsFile,
			cat,
			loggerClient,
			cfg.ReloadInterval,
			reloadTrigger,
		)
	} else {
		loggerClient.Info("spots file not configured, catalog disabled")
	}

	// Websocket fan-out: pushes every list change to connected clients.
	hub := ws.New(history, saved, loggerClient, cfg.WSClientBufferSize)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:          loggerClient,
		StartTime:       time.Now(),
		Version:         version.Version,
		Commit:          version.Commit,
		BuildDate:       version.BuildDate,
		GoVersion:       version.GoVersion,
		TimeNow:         time.Now,
		AllowedHosts:    cfg.AllowedHosts,
		AllowedCIDRS:    cfg.AllowedCIDRS,
		TrustProxy:      cfg.TrustProxy,
		History:         history,
		Saved:           saved,
		Catalog:         cat,
		Hub:             hub,
		StorageBackend:  cfg.StorageBackend,
		RedisClient:     redisClient,
		SpotsFile:       cfg.SpotsFile,
		ReloadTrigger:   reloadTrigger,
		RateLimitBurst:  cfg.RateLimitBurst,
		RateLimitPerMin: cfg.RateLimitPerMin,
		RateLimitMaxIPs: cfg.RateLimitMaxIPs,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		history:     history,
		saved:       saved,
		catalog:     cat,
		reloader:    reloader,
		hub:         hub,
	}
}

// newAdapter builds the persistence backend for the lists. The memory
// backend always works; file creates its data dir; redis connects with
// retries and exits the process when it never comes up.
func newAdapter(cfg *config.Config, loggerClient logger.Logger) (storage.Adapter, *goredis.Client) {
	switch cfg.StorageBackend {
	case config.BackendRedis:
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		redisClient, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Errorf("Failed to connect to Redis: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("Redis initialized successfully")
		return storage.NewRedisAdapter(redisClient), redisClient

	case config.BackendFile:
		adapter, err := storage.NewFileAdapter(cfg.DataDir)
		if err != nil {
			loggerClient.Errorf("Failed to prepare data dir: %v", err)
			os.Exit(1)
		}
		loggerClient.Info("file storage initialized",
			logger.String("dir", cfg.DataDir))
		return adapter, nil

	default: // config.Load already validated the value
		loggerClient.Warn("memory storage backend selected, lists will not survive restarts")
		return storage.NewMemoryAdapter(), nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Spark v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Spark %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Kick off the background loads. Mutations arriving before they
	// finish win over the stored state, so nothing waits on these.
	a.history.Initialize(context.Background())
	a.saved.Initialize(context.Background())

	// Start the catalog reloader (initial load plus file watch and
	// periodic refresh)
	if a.reloader != nil {
		if err := a.reloader.Start(ctx); err != nil {
			return fmt.Errorf("failed to start catalog reloader: %w", err)
		}
		a.logger.Info("catalog reloader started",
			logger.Duration("interval", a.cfg.ReloadInterval))
	}

	// Start the websocket broadcast loop
	hubCtx, hubCancel := context.WithCancel(context.Background())
	a.hubCancel = hubCancel
	go a.hub.Run(hubCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop the catalog reloader
	if a.reloader != nil {
		a.reloader.Stop()
	}

	// Stop broadcasting and disconnect websocket clients
	a.hubCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	// The debounce window may still hold the last mutations; write them
	// out before the process exits.
	a.history.Flush(shutdownCtx)
	a.saved.Flush(shutdownCtx)

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Spark stopped cleanly")
	return nil
}
