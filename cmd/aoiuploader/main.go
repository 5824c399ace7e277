package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sha0S/AOI-uploader/internal/config"
	"github.com/Sha0S/AOI-uploader/internal/metrics"
	"github.com/Sha0S/AOI-uploader/internal/metrics/datadog"
	"github.com/Sha0S/AOI-uploader/internal/metrics/prompush"
	"github.com/Sha0S/AOI-uploader/internal/pipeline"
	"github.com/Sha0S/AOI-uploader/internal/skiplog"
	"github.com/Sha0S/AOI-uploader/internal/storage"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "github.com/Sha0S/AOI-uploader/internal/storage/all"
)

const reconnectBackoff = 60 * time.Second

// main is the entry point for the uploader daemon. It loads the config,
// optionally initializes a metrics backend, opens the destination database
// with a retry loop, and runs upload cycles until interrupted.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
		once              bool
	)

	flag.StringVar(&cfgPath, "config", "config.json", "uploader config JSON path")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, datadog, none); overrides config")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL and config)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&once, "once", false, "run a single cycle and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		log.Printf("Configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(cfg, metricsBackendFlg, pushGatewayURLFlg, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var skip *skiplog.Log
	if cfg.Runtime.SkipLog != "" {
		skip, err = skiplog.New(cfg.Runtime.SkipLog)
		if err != nil {
			fatalf("%v", err)
		}
		defer func() {
			if err := skip.Close(); err != nil {
				log.Printf("skiplog: close error: %v", err)
			}
		}()
	}

	repo := openRepository(ctx, cfg)
	if repo == nil {
		return // interrupted while connecting
	}
	defer func() { repo.Close() }()

	runner := pipeline.New(cfg, repo, skip)
	poll := time.Duration(cfg.Runtime.PollSeconds) * time.Second

	for {
		// The plant network drops connections overnight; check before each
		// cycle and reconnect instead of failing the cycle.
		if err := repo.Ping(ctx); err != nil {
			log.Printf("storage: ping failed: %v; reconnecting", err)
			repo.Close()
			repo = openRepository(ctx, cfg)
			if repo == nil {
				return
			}
			runner = pipeline.New(cfg, repo, skip)
		}

		start := time.Now()
		sum, err := runner.Cycle(ctx)
		if err != nil {
			log.Printf("cycle: %v", err)
		} else if *verbose {
			log.Printf("cycle: %+v in %s", sum, time.Since(start).Truncate(time.Millisecond))
		}
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}

		if once {
			if err != nil {
				// os.Exit skips deferred cleanup; flush by hand.
				if skip != nil {
					_ = skip.Close()
				}
				_ = metrics.Flush()
				os.Exit(1)
			}
			return
		}

		select {
		case <-ctx.Done():
			log.Printf("shutting down")
			return
		case <-time.After(poll):
		}
	}
}

// openRepository opens the configured backend, retrying until it succeeds
// or the context ends. The uploader outlives DB maintenance windows this way.
func openRepository(ctx context.Context, cfg config.Config) storage.Repository {
	for {
		repo, err := storage.New(ctx, storage.Config{
			Kind:  cfg.Storage.Kind,
			DSN:   cfg.Storage.DB.DSN,
			Table: cfg.Storage.DB.Table,
		})
		if err == nil {
			log.Printf("storage: connected kind=%s table=%s", cfg.Storage.Kind, cfg.Storage.DB.Table)
			return repo
		}
		log.Printf("storage: connect failed: %v; retrying in %s", err, reconnectBackoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectBackoff):
		}
	}
}

// setupMetrics installs the metrics backend: flag → env → config → none.
func setupMetrics(cfg config.Config, backendFlg, gatewayFlg string, verbose bool) {
	backendName := backendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	if backendName == "" {
		backendName = cfg.Metrics.Backend
	}

	jobName := cfg.Job
	if jobName == "" {
		jobName = "aoi_uploader"
	}

	switch backendName {
	case "pushgateway":
		gwURL := gatewayFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = cfg.Metrics.PushgatewayURL
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(jobName, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, jobName)
		metrics.SetBackend(b)

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:      cfg.Metrics.StatsdAddr,
			Namespace: "aoi.",
			GlobalTags: []string{
				"job:" + jobName,
			},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", cfg.Metrics.StatsdAddr, backendName, jobName)
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
