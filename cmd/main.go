package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/commitwatch/internal/adapters/http/api"
	"github.com/okian/commitwatch/internal/adapters/http/swagger"
	"github.com/okian/commitwatch/internal/adapters/ledger"
	"github.com/okian/commitwatch/internal/adapters/notify"
	"github.com/okian/commitwatch/internal/adapters/repository"
	service "github.com/okian/commitwatch/internal/app"
	"github.com/okian/commitwatch/internal/config"
	"github.com/okian/commitwatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 2
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 2
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, log)
	if err != nil {
		log.Error(ctx, "failed to build service", logger.Error(err))
		return 1
	}
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return 1
	}
	defer svc.Stop()

	if cfg.ScanInterval() == 0 {
		rep, err := svc.RunOnce(ctx)
		if err != nil {
			log.Error(ctx, "scan failed", logger.Error(err))
			return 1
		}
		log.Info(ctx, "scan finished",
			logger.Uint64("block", rep.Block),
			logger.Int("changes", len(rep.Changes)),
		)
		return 0
	}

	if cfg.Addr != "" {
		srv := newHTTPServer(cfg.Addr, svc)
		go func() {
			log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error(ctx, "HTTP server failed", logger.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error(ctx, "server shutdown failed", logger.Error(err))
			}
			log.Info(ctx, "server stopped")
		}()
	}

	log.Info(ctx, "watching registry", logger.Duration("interval", cfg.ScanInterval()))
	if err := svc.Run(ctx, cfg.ScanInterval()); err != nil {
		log.Error(ctx, "scan loop failed", logger.Error(err))
		return 1
	}
	log.Info(ctx, "shutting down...")
	return 0
}

// newService wires the ledger reader, baseline store and notifier from cfg.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	reader := ledger.NewHTTPClient(cfg.LedgerURL, cfg.Netuid, ledger.WithTimeout(cfg.RequestTimeout()))

	store, err := repository.NewFileStore(cfg.BaselinePath, repository.WithLogger(log.Named("baseline")))
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg, log)
	if err != nil {
		return nil, err
	}

	return service.New(reader, store,
		service.WithLogger(log.Named("scan")),
		service.WithNotifier(notifier),
		service.WithFetchAttempts(cfg.FetchAttempts),
		service.WithRetryDelay(cfg.RetryDelay()),
		service.WithPacingDelay(cfg.PacingDelay()),
		service.WithFetchConcurrency(cfg.FetchConcurrency),
		service.WithPinBlock(cfg.PinBlock),
		service.WithNotifyDelay(cfg.NotifyDelay()),
		service.WithQueueSize(cfg.NotifyQueueSize),
	), nil
}

// newNotifier posts to the configured webhook, or logs alerts when none is set.
func newNotifier(cfg *config.Config, log logger.Logger) (notify.Notifier, error) {
	if cfg.WebhookURL == "" {
		return notify.NewLog(log.Named("alerts")), nil
	}
	webhook, err := notify.NewWebhook(cfg.WebhookURL,
		notify.WithUsername(cfg.WebhookUsername),
		notify.WithTimeout(cfg.RequestTimeout()),
	)
	if err != nil {
		return nil, err
	}
	return webhook, nil
}

func newHTTPServer(addr string, deps api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(deps).Register(mux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
