package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/lojhan/primehash/internal/command"
	"github.com/lojhan/primehash/internal/config"
	"github.com/lojhan/primehash/internal/logging"
	"github.com/lojhan/primehash/internal/server"
	"github.com/lojhan/primehash/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		Development: cfg.LogDev,
		MaxBackups:  3,
		MaxAgeDays:  28,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	storeCfg := cfg.StoreConfig()
	storeCfg.Logger = logger.Named("store")
	dataStore, err := store.NewStore(storeCfg)
	if err != nil {
		return err
	}

	srv := server.NewServer(
		server.WithLogger(logger.Named("server")),
		server.WithMulticore(cfg.Multicore),
	)
	command.Register(srv, dataStore, srv.Counters)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	logger.Info("starting primehash server",
		zap.String("port", cfg.Port),
		zap.String("strategy", cfg.Strategy),
		zap.Int("capacity", dataStore.Stats().Capacity),
		zap.String("hash", cfg.Hash),
	)
	g.Go(func() error {
		return srv.Serve(ctx, cfg.Port)
	})

	if cfg.HTTPPort != "" {
		api := server.NewStatsAPI(dataStore, srv.Counters, logger.Named("http"))
		httpSrv := &http.Server{
			Addr:              ":" + cfg.HTTPPort,
			Handler:           api.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		logger.Info("starting stats API", zap.String("port", cfg.HTTPPort))
		g.Go(func() error {
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return shutdownHTTP(httpSrv)
		})
	}

	err = g.Wait()
	logger.Info("shut down", zap.Error(err))
	return err
}

func shutdownHTTP(httpSrv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop stats API: %w", err)
	}
	return nil
}
