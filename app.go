package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	shell          *Shell
	server         *http.Server
	redisClient    *redis.Client
	cleanups       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App reading the session commands
// from the standard input.
func NewApp() (AppProvider, error) {
	config, err := LoadAndInitConfigs(DefaultConfigFile, DefaultEnvFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %s", err)
	}
	return BuildApp(config, os.Stdin, os.Stdout)
}

// BuildApp wires every module of the App from a ready configuration.
func BuildApp(config *Config, in io.Reader, out io.Writer) (*App, error) {
	app := &App{config: config}

	// ensure the logs folder exists and Setup the logging module.
	err := os.MkdirAll(config.LogFolder, 0o700)
	if err != nil {
		return nil, fmt.Errorf("failed to create logging folder: %s", err)
	}
	clock := NewClock(config.IsProduction)
	logWriter := NewRSyncWriter(config, clock)
	logger, flusher := SetupLogging(config, logWriter, clock)
	app.logger = logger
	app.cleanups = append(app.cleanups, logWriter.Close, flusher)

	// Load the catalog. There is no session without its file.
	register, err := NewBookRegister(logger, &config.Register)
	if err != nil {
		logger.Error("failed to load book register", zap.String("file", config.Register.File), zap.Error(err))
		app.Clean()
		return nil, fmt.Errorf("failed to load book register: %w", err)
	}
	logger.Info("book register loaded", zap.String("file", config.Register.File), zap.Int("count", register.Len()))

	ids := NewIDsHandler()
	stats := NewSessionStats(clock.Now(), register.Len())

	// Setup the optional journal: a queue of change events consumed into bolt.
	var queue Queuer
	var archive SnapshotArchiver
	if config.Journal.Enabled {
		boltDBClient, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			app.Clean()
			return nil, fmt.Errorf("failed to open boltdb archive: %s", err)
		}
		boltArchive := NewBoltArchive(logger, &config.BoltDB, boltDBClient)
		app.cleanups = append(app.cleanups, boltArchive.Close)
		archive = boltArchive

		if config.Redis.Enabled {
			redisClient, err := GetRedisClient(config)
			if err != nil {
				app.Clean()
				return nil, fmt.Errorf("failed to connect to redis server: %s", err)
			}
			app.redisClient = redisClient
			app.cleanups = append(app.cleanups, redisClient.Close)
			queue = NewRedisQueue(redisClient, config.Redis.KeyPrefix)
		} else {
			queue = NewMemoryQueue(config.Journal.Buffer)
		}

		consumer := NewJournalConsumer(logger, queue, boltArchive)
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return consumer.Consume(ctx, JournalQueue)
		})
	}

	service := NewRegisterService(logger, config, clock, ids, register, queue, archive, stats)
	app.shell = NewShell(logger, service, in, out)

	if config.Ops.Enabled {
		apiService := NewAPIHandler(
			logger,
			config,
			&Statistics{
				version:  config.GitTag,
				started:  clock.Now(),
				runtime:  runtime.Version(),
				platform: runtime.GOOS + "/" + runtime.GOARCH,
			},
			clock,
			ids,
			stats,
			archive,
		)
		// Use git commit in case the tag is not set.
		if config.GitTag == "" {
			apiService.stats.version = config.GitCommit
		}
		router := apiService.SetupRoutes(httprouter.New(), apiService.MiddlewaresStack())
		app.server = &http.Server{
			Addr:           fmt.Sprintf("%s:%s", config.Ops.Host, config.Ops.Port),
			Handler:        router,
			ReadTimeout:    config.Ops.ReadTimeout,
			WriteTimeout:   config.Ops.WriteTimeout,
			MaxHeaderBytes: 1 << 20, // Max headers size : 1MB
		}
	}

	return app, nil
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		client.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// Run starts the session, the queue consumers and the ops server. Once the
// session ends, whatever the reason, everything else is stopped.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sCtx, endSession := context.WithCancel(nCtx)
	defer endSession()
	g, gCtx := errgroup.WithContext(sCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	if app.server != nil {
		g.Go(app.Serve())
		g.Go(app.Stop(nCtx, gCtx))
	}
	g.Go(func() error {
		defer endSession()
		return app.shell.Run(gCtx)
	})

	err := g.Wait()
	switch {
	case errors.Is(err, ErrSessionAborted):
		app.logger.Warn("session aborted. book register not saved", zap.String("file", app.config.Register.File), zap.Error(err))
	case errors.Is(err, ErrInputFailed):
		app.logger.Error("session input unreadable. book register not saved", zap.String("file", app.config.Register.File), zap.Error(err))
	default:
		app.logger.Info("session ended", zap.String("file", app.config.Register.File), zap.Error(err))
	}
	return err
}

// Clean calls all registered cleanups functions in reverse order.
func (app *App) Clean() {
	for i := len(app.cleanups) - 1; i >= 0; i-- {
		if err := app.cleanups[i](); err != nil {
			fmt.Fprintln(os.Stderr, "error during cleanup:", err)
		}
	}
	app.cleanups = nil
}

// Serve starts the ops web server. It returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("ops server starting",
			zap.String("app.host", app.config.Ops.Host),
			zap.String("app.port", app.config.Ops.Port),
		)
		err := app.server.ListenAndServe()
		if err == http.ErrServerClosed {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("ops server stopping. reason: requested to stop")
		} else {
			app.logger.Info("ops server stopping. reason: session ended")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Ops.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch err {
		case nil, http.ErrServerClosed:
			app.logger.Info("ops server graceful shutdown succeeded")
		case context.DeadlineExceeded:
			app.logger.Info("ops server graceful shutdown timed out")
		default:
			app.logger.Info("ops server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && err != http.ErrServerClosed {
			app.logger.Info("ops server going to force shutdown", zap.Error(app.server.Close()))
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
