package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/chatnav/compass/internal/bookmarks"
	"github.com/chatnav/compass/internal/broker"
	"github.com/chatnav/compass/internal/config"
	"github.com/chatnav/compass/internal/extract"
	"github.com/chatnav/compass/internal/httpserver"
	"github.com/chatnav/compass/internal/httpserver/deps"
	"github.com/chatnav/compass/internal/kv"
	"github.com/chatnav/compass/internal/logger"
	"github.com/chatnav/compass/internal/nav"
	"github.com/chatnav/compass/internal/observe"
	"github.com/chatnav/compass/internal/page"
	"github.com/chatnav/compass/internal/relay"
	"github.com/chatnav/compass/internal/scheduler"
	"github.com/chatnav/compass/internal/source"
	"github.com/chatnav/compass/internal/sources/profile"
	"github.com/chatnav/compass/internal/version"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger
	server *httpserver.Server

	redisClient *goredis.Client
	document    *page.FileDocument
	panelMgr    *bookmarks.Manager
	brokerMgr   *bookmarks.Manager
	broker      *broker.Broker
	source      *source.Context
	reloader    *scheduler.ProfileReloader
	sweeper     *scheduler.RecentSweeper
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Pick the backing store: Redis when configured, memory otherwise.
	var store kv.Store
	var redisClient *goredis.Client
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := kv.Connect(kv.ConnectOptions{
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
		redisClient = client
		store = kv.NewRedisStore(client, loggerClient)
		loggerClient.Info("Redis store initialized")
	} else {
		store = kv.NewMemoryStore()
		loggerClient.Info("no redis configured, using in-memory store")
	}

	// The panel and the broker each run their own manager over the
	// shared store; change notifications keep them in step.
	panelMgr := bookmarks.NewManager(store, loggerClient)
	brokerMgr := bookmarks.NewManager(store, loggerClient)

	bus := relay.NewBus(cfg.RelayTimeout, loggerClient)
	brk := broker.New(brokerMgr, bus, loggerClient)

	// The document feed: an HTML file watched for rewrites, labeled
	// with the conversation URL it stands in for.
	document, err := page.NewFileDocument(cfg.DocumentFile, cfg.ConversationURL, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to open document %s: %v", cfg.DocumentFile, err)
		os.Exit(1)
	}

	extractor := extract.New(profile.Default())

	reloader := scheduler.NewProfileReloader(
		cfg.ProfileFile,
		cfg.ReloadInterval,
		extractor.SetProfile,
		loggerClient,
	)

	restoreRetry := nav.Policy{
		MaxAttempts: cfg.RestoreAttempts,
		Backoff:     cfg.RestoreBackoff,
	}
	src := source.New(document, extractor,
		nav.Options{
			HighlightDuration: cfg.HighlightDuration,
			NavigationSettle:  cfg.NavigationSettle,
			Retry:             restoreRetry,
		},
		source.Options{
			Observer: observe.Options{
				DebounceWindow:   cfg.DebounceWindow,
				NavigationSettle: cfg.NavigationSettle,
			},
			RestoreRetry: restoreRetry,
		},
		bus, brokerMgr, source.LogMarker{Log: loggerClient}, loggerClient)

	sweeper := scheduler.NewRecentSweeper(brokerMgr, cfg.RecentRetention, cfg.SweepInterval, loggerClient)

	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		Bus:           bus,
		Manager:       panelMgr,
		SessionID:     src.ID(),
		ReloadTrigger: reloader.TriggerChannel(),
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		document:    document,
		panelMgr:    panelMgr,
		brokerMgr:   brokerMgr,
		broker:      brk,
		source:      src,
		reloader:    reloader,
		sweeper:     sweeper,
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting Compass v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Compass %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.panelMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start panel bookmark manager: %w", err)
	}
	if err := a.brokerMgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start broker bookmark manager: %w", err)
	}

	a.broker.Start()

	// Load the markup profile before the first extraction pass.
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start profile reloader: %w", err)
	}
	a.logger.Info("profile reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	a.source.Start(ctx)
	a.logger.Info("source context started",
		logger.String("document", a.cfg.DocumentFile),
		logger.String("url", a.cfg.ConversationURL))

	a.sweeper.Start(ctx)
	a.logger.Info("recent conversation sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval),
		logger.Duration("retention", a.cfg.RecentRetention))

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

	a.sweeper.Stop()
	a.reloader.Stop()
	a.source.Stop()
	a.broker.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.panelMgr.Stop()
	a.brokerMgr.Stop()

	if err := a.document.Close(); err != nil {
		a.logger.Warnf("failed to close document watcher: %v", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ Compass stopped cleanly")
	return nil
}
