package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/joseph-ayodele/nutrifill/internal/async"
	"github.com/joseph-ayodele/nutrifill/internal/autofill"
	"github.com/joseph-ayodele/nutrifill/internal/browser"
	"github.com/joseph-ayodele/nutrifill/internal/commit"
	"github.com/joseph-ayodele/nutrifill/internal/common"
	"github.com/joseph-ayodele/nutrifill/internal/ingest"
	"github.com/joseph-ayodele/nutrifill/internal/match"
	"github.com/joseph-ayodele/nutrifill/internal/notify"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
	repo "github.com/joseph-ayodele/nutrifill/internal/repository"
	svc "github.com/joseph-ayodele/nutrifill/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("nutrifilld exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	tables := match.DefaultTables()
	if cfg.TablesPath != "" {
		t, err := match.LoadTables(cfg.TablesPath)
		if err != nil {
			return err
		}
		tables = t
	}

	var history repo.HistoryRepository
	var recorder pipeline.Recorder
	if cfg.History.DSN != "" {
		db, err := repo.Open(ctx, repo.ConfigFrom(cfg.History), logger)
		if err != nil {
			return err
		}
		defer repo.Close(db, logger)
		if err := repo.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
			return err
		}
		history = repo.NewHistoryRepository(db, logger)
		recorder = history
	}

	page, err := browser.Connect(ctx, cfg.Browser, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("browser.close.failed", "error", err)
		}
	}()

	pass := pipeline.NewPass(
		match.NewMatcher(tables, logger),
		commit.NewDriver(commit.TimingFromConfig(cfg.Timing), logger),
		notify.Multi{page.Notifier(), notify.NewLog(logger)},
		recorder,
		logger,
	)
	resolve := func(ctx context.Context) (autofill.Registry, error) {
		return page.Resolve(ctx, cfg.Browser.ReadyTimeout)
	}
	queue := async.NewPassQueue(pass, resolve, logger,
		async.WithQueueSize(64),
		async.WithBound(func(text string) time.Duration {
			return cfg.Browser.ReadyTimeout + pass.Bound(text)
		}),
	)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return common.WrapError(err, "listen on "+cfg.Server.GRPCAddr)
	}
	grpcServer, health := svc.NewGRPCServer(svc.NewFillServer(queue, history, logger))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("nutrifilld listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return common.WrapError(err, "grpc serve")
		}
		return nil
	})

	if len(cfg.Inbox.Dirs) > 0 {
		inbox := ingest.NewInbox(queue, logger)
		g.Go(func() error {
			return runInbox(gctx, inbox, cfg.Inbox, logger)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		health.Shutdown()
		stopped := make(chan struct{})
		go func() {
			grpcServer.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-time.After(10 * time.Second):
			grpcServer.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		queue.Shutdown(shutdownCtx)
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runInbox drains files already waiting, then processes new ones as they land.
func runInbox(ctx context.Context, inbox *ingest.Inbox, cfg common.InboxConfig, logger *slog.Logger) error {
	paths, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Dirs:     cfg.Dirs,
		Debounce: cfg.Debounce,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	go func() {
		for err := range errs {
			logger.Warn("inbox.watch.error", "error", err)
		}
	}()

	for _, dir := range cfg.Dirs {
		stats, err := inbox.Drain(ctx, dir)
		if err != nil {
			return err
		}
		logger.Info("inbox.drained", "dir", dir,
			"scanned", stats.Scanned, "matched", stats.Matched,
			"succeeded", stats.Succeeded, "failed", stats.Failed)
	}
	return inbox.Run(ctx, paths)
}
