package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"newsflash/adapter/console"
	"newsflash/adapter/feed"
	"newsflash/adapter/resolver"
	"newsflash/app"
	"newsflash/cli/control"
	"newsflash/internal/config"
	"newsflash/internal/logger"
	"newsflash/internal/metrics"
)

const disposeTimeout = 10 * time.Second

type runOptions struct {
	idle        bool
	clearScreen bool
	debug       bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	c := &cobra.Command{
		Use:   "run",
		Short: "Host the poller and its control server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if addr, _ := cmd.Flags().GetString("control-addr"); addr != "" {
				cfg.ControlAddr = addr
			}
			if opts.debug {
				cfg.DebugLogging = true
				cfg.LogLevel = "debug"
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return run(ctx, cfg, opts)
		},
	}
	c.Flags().BoolVar(&opts.idle, "idle", false, "do not start polling until asked through the control server")
	c.Flags().BoolVar(&opts.clearScreen, "clear", false, "clear the terminal before each redraw")
	c.Flags().BoolVar(&opts.debug, "debug", false, "enable feed trace logging")
	return c
}

func run(ctx context.Context, cfg config.Config, opts runOptions) error {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel})
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	listener, err := control.TryListen(cfg.ControlAddr)
	if err != nil {
		if errors.Is(err, control.ErrAlreadyRunning) {
			fmt.Println("Background process is already running")
		}
		return fmt.Errorf("failed to start control server: %w", err)
	}
	defer listener.Close()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close cache backend", logger.Error(err))
		}
	}()

	pool := resolver.New(cfg.ResolveDomain, cfg.FallbackAddrs, nil, log)
	pool.RefreshAsync()
	fetcher := feed.NewHTTPFetcher(pool, feed.Options{
		Host:        cfg.FeedHost,
		Path:        cfg.FeedPath,
		Port:        cfg.FeedPort,
		Timeout:     cfg.FeedTimeout,
		InsecureTLS: cfg.InsecureTLS,
		Debug:       cfg.DebugLogging,
	}, log)

	m := metrics.New()
	sched := app.NewScheduler(
		fetcher,
		app.NewDeduplicator(),
		app.NewNewsStore(store, cfg.CacheKey, cfg.MaxItems),
		console.New(os.Stdout, console.Options{ClearScreen: opts.clearScreen}),
		log,
		app.SchedulerOptions{
			Interval:          cfg.RefreshInterval,
			ShowImportantOnly: cfg.ShowImportantOnly,
			Observer:          m,
			Resolver:          pool,
		},
	)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- control.NewServer(sched, m.Handler(), log).Serve(ctx, listener)
	}()
	log.Info("control server listening", logger.String("addr", listener.Addr().String()))

	if opts.idle {
		log.Info("idle until started", logger.String("addr", cfg.ControlAddr))
	} else if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start polling: %w", err)
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error("control server error", logger.Error(err))
		}
	}

	// the signal context is already done here
	disposeCtx, cancelDispose := context.WithTimeout(context.Background(), disposeTimeout)
	defer cancelDispose()
	if err := sched.Dispose(disposeCtx); err != nil {
		log.Error("error during shutdown", logger.Error(err))
		return err
	}
	log.Info("graceful shutdown: poller disposed")
	return nil
}
