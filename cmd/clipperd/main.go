package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pysugar/careertracker/internal/api"
	"github.com/pysugar/careertracker/internal/auth/otp"
	"github.com/pysugar/careertracker/internal/auth/token"
	"github.com/pysugar/careertracker/internal/bridge"
	"github.com/pysugar/careertracker/internal/config"
	"github.com/pysugar/careertracker/internal/db"
	"github.com/pysugar/careertracker/internal/jobs"
	"github.com/pysugar/careertracker/internal/logging"
	"github.com/pysugar/careertracker/internal/scrape"
	"github.com/pysugar/careertracker/internal/version"
	"github.com/spf13/pflag"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfgFile := pflag.String("config", "", "config file (default is .tracker.yaml)")
	printKey := pflag.Bool("print-key", false, "print the bridge key and exit")
	showVersion := pflag.Bool("version", false, "print version information and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println(version.String("clipperd"))
		return
	}
	if err := run(*cfgFile, *printKey); err != nil {
		slog.Error("clipperd failed", "error", err)
		os.Exit(1)
	}
}

func run(cfgFile string, printKey bool) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log.Level)
	slog.SetDefault(logger)

	database, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	if printKey {
		fmt.Println(db.GetBridgeKey(database))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := db.NewCredentialStore(database)
	calls := db.NewCallLogger(database)
	coordinator := token.NewCoordinator(store, &http.Client{Timeout: cfg.HTTP.Timeout}, logger)
	client := api.NewClient(store, coordinator,
		api.WithTimeout(cfg.HTTP.Timeout),
		api.WithLogger(logger),
		api.WithObserver(calls.Observe),
	)

	flow := otp.NewFlow(client, logger)
	state, err := flow.Restore(ctx)
	if err != nil {
		return err
	}

	dispatcher := bridge.NewDispatcher(store, flow,
		jobs.NewService(client, logger),
		scrape.NewRegistry(scrape.WithLogger(logger)),
		logger,
	)

	var limiter *rate.Limiter
	if cfg.Bridge.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Bridge.RateLimit), cfg.Bridge.Burst)
	}

	router := bridge.NewRouter(dispatcher,
		func() string { return db.GetBridgeKey(database) },
		limiter, logger,
		bridge.WithAdmin(calls, func() (string, error) { return db.RegenerateBridgeKey(database) }, logger),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("clipperd starting",
			"version", version.Version,
			"addr", cfg.ListenAddr,
			"session", state.String(),
		)
		logger.Info("bridge endpoint", "url", "http://"+cfg.ListenAddr+"/message")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
