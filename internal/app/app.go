package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ArtemMoroz51/quizbox/internal/handler"
	"github.com/ArtemMoroz51/quizbox/internal/logger"
	"github.com/ArtemMoroz51/quizbox/internal/quiz"
	"github.com/ArtemMoroz51/quizbox/internal/service"
	"github.com/ArtemMoroz51/quizbox/internal/storage"
	"github.com/ArtemMoroz51/quizbox/internal/ws"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg   Config
	log   *zap.Logger
	store *storage.HybridStore
	hub   *ws.Hub
	cron  *cron.Cron
	srv   *http.Server
}

func New(ctx context.Context, cfg Config) (*App, error) {
	l, err := logger.New(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewHybridStore(ctx, primaryOpener(cfg, l), fallbackOpener(cfg, l), l)
	if err != nil {
		_ = l.Sync()
		return nil, err
	}

	sampler := quiz.NewSampler(cfg.RecentLimit, nil)
	lib := service.NewLibraryService(store)
	play := service.NewPlayService(store, sampler, service.PlayConfig{RecentSessions: cfg.RecentSessions}, l)

	hub := ws.NewHub(l)
	store.AddUpdateListener(hub.NotifyChanged)

	mux := http.NewServeMux()
	handler.RegisterLibraryHandlers(mux, lib, cfg.APIToken, l)
	handler.RegisterPlayHandlers(mux, play, cfg.APIToken, l)
	handler.RegisterHandlers(mux, store, hub, handler.Info{Title: cfg.Title, Version: cfg.Version}, cfg.APIToken, l)

	var h http.Handler = mux
	if len(cfg.CORSOrigins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         86400,
		}).Handler(mux)
	}

	a := &App{
		cfg:   cfg,
		log:   l,
		store: store,
		hub:   hub,
		srv: &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	if cfg.ReconnectSchedule != "" {
		if err := a.scheduleReconnect(cfg.ReconnectSchedule); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

func primaryOpener(cfg Config, l *zap.Logger) storage.Opener {
	return func(ctx context.Context) (storage.Store, error) {
		if cfg.ConnectTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
			defer cancel()
		}
		s, err := storage.NewPostgresStore(ctx, cfg.DB, l)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func fallbackOpener(cfg Config, l *zap.Logger) storage.Opener {
	return func(ctx context.Context) (storage.Store, error) {
		s, err := storage.NewFileStore(cfg.StorageDir, l)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// scheduleReconnect retries the primary backend on the given cron spec while
// the store is serving from the fallback.
func (a *App) scheduleReconnect(spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		if a.store.State() != storage.UsingFallback {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := a.store.Reconnect(ctx); err != nil {
			a.log.Warn("scheduled reconnect failed", zap.Error(err))
			return
		}
		a.log.Info("scheduled reconnect succeeded", zap.Stringer("state", a.store.State()))
	})
	if err != nil {
		return fmt.Errorf("reconnect schedule %q: %w", spec, err)
	}
	a.cron = c
	return nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler { return a.srv.Handler }

// Run serves HTTP until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.log.Info("server started",
		zap.String("addr", a.cfg.HTTPAddr),
		zap.String("log_level", a.cfg.LogLevel),
		zap.String("log_file", a.cfg.LogFile),
		zap.Stringer("storage", a.store.State()),
	)

	if a.cron != nil {
		a.cron.Start()
		defer func() { <-a.cron.Stop().Done() }()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("server shutting down")
		return a.srv.Shutdown(sctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}
