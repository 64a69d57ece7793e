package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"etymon/internal/config"
	"etymon/internal/gamification"
	"etymon/internal/history"
	"etymon/internal/keypool"
	"etymon/internal/leaderboard"
	"etymon/internal/logging"
	"etymon/internal/lookup"
	"etymon/internal/resultcache"
	"etymon/internal/server"
	"etymon/internal/services/gemini"
	"etymon/internal/store"
)

const shutdownGrace = 10 * time.Second

func run(ctx context.Context, configPath string) error {
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logPath := filepath.Join(cfg.Paths.LogDir, "etymond.log")
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !locked {
		return errors.New("another etymond instance is already running")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release lock", logging.Error(err))
		}
	}()

	db, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	pool, err := keypool.New(cfg.Provider.APIKeys)
	if err != nil {
		return err
	}
	client := gemini.NewClient(gemini.Config{
		BaseURL:        cfg.Provider.BaseURL,
		TextModel:      cfg.Provider.TextModel,
		TTSModel:       cfg.Provider.TTSModel,
		ImageModel:     cfg.Provider.ImageModel,
		CallTimeout:    cfg.CallTimeout(),
		RetryAttempts:  cfg.Provider.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay(),
	})
	cache, err := resultcache.New(resultcache.Options{
		Capacity:    cfg.Cache.Capacity,
		SuccessTTL:  cfg.SuccessTTL(),
		DegradedTTL: cfg.DegradedTTL(),
		MirrorPath:  cfg.CacheMirrorPath(),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("init result cache: %w", err)
	}
	lookups, err := lookup.NewService(pool, client, cache, logger)
	if err != nil {
		return err
	}
	engine, err := gamification.NewEngine(db, logger)
	if err != nil {
		return err
	}
	hist, err := history.New(db, cfg.Gamification.HistoryCap, logger)
	if err != nil {
		return err
	}
	board, err := leaderboard.New(db, cfg.Gamification.LeaderboardSize)
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, server.Deps{
		Lookups:     lookups,
		Engine:      engine,
		History:     hist,
		Leaderboard: board,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("etymond started",
		logging.String("bind", cfg.Server.Bind),
		logging.String("database", db.Path()),
		logging.Int("credentials", pool.Size()))

	select {
	case err := <-errCh:
		return err
	case <-signalCtx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
