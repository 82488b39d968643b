package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"venuefeed/collect"
	"venuefeed/config"
	"venuefeed/describe"
	"venuefeed/enrich"
	"venuefeed/extract"
	"venuefeed/model"
	"venuefeed/notify"
	"venuefeed/publish"
	"venuefeed/render"
	"venuefeed/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "path to config.yaml (default: VENUEFEED_CONFIG or ./config.yaml)")
		siteKey    = flag.String("site", "all", "site key to collect, or \"all\"")
		deploy     = flag.Bool("deploy", false, "push the rendered bundle to each site's git repository")
		preview    = flag.Bool("preview", false, "write the rendered bundle to the local output directory")
		serve      = flag.Bool("serve", false, "run scheduled collections and serve metrics until interrupted")
		verbose    = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.LogLevel, *verbose)
	slog.SetDefault(logger)

	sites, err := loadSites(cfg.SitesDir, *siteKey)
	if err != nil {
		logger.Error("failed to load site configs", "dir", cfg.SitesDir, "error", err)
		return 1
	}

	app := newApp(cfg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *serve {
		return app.serve(ctx, sites)
	}
	return app.runOnce(ctx, sites, *deploy, *preview)
}

func newLogger(level string, verbose bool) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func loadSites(dir, key string) ([]*config.Site, error) {
	if key == "all" {
		sites, err := config.LoadAllSites(dir)
		if err != nil {
			return nil, err
		}
		if len(sites) == 0 {
			return nil, fmt.Errorf("no site configs found in %s", dir)
		}
		return sites, nil
	}

	site, err := config.LoadSiteByKey(dir, key)
	if err != nil {
		return nil, err
	}
	return []*config.Site{site}, nil
}

// App holds the shared dependencies of both run modes.
type App struct {
	cfg         *config.Config
	logger      *slog.Logger
	coordinator *collect.Coordinator
	publisher   *publish.Publisher
	enricher    *enrich.Enricher
	describer   *describe.Describer
	notifier    *notify.Notifier
}

func newApp(cfg *config.Config, logger *slog.Logger) *App {
	registry := extract.DefaultRegistry()
	client := &http.Client{Timeout: cfg.FetchTimeout()}
	metrics := collect.NewMetrics(prometheus.DefaultRegisterer)

	coordinator := collect.New(registry, client,
		collect.WithConcurrency(cfg.Concurrency),
		collect.WithMaxAttempts(cfg.MaxAttempts),
		collect.WithPerSourceTimeout(cfg.SourceTimeout()),
		collect.WithOverallDeadline(cfg.RunDeadline()),
		collect.WithBackoff(cfg.BackoffBase(), cfg.BackoffCap()),
		collect.WithMetrics(metrics),
	)

	app := &App{
		cfg:         cfg,
		logger:      logger,
		coordinator: coordinator,
		publisher:   publish.New(cfg.TemplatesDir, logger),
	}

	if cfg.EnrichDescriptions {
		app.enricher = enrich.New(logger, enrich.WithTimeout(cfg.FetchTimeout()))
	}
	if cfg.GeminiAPIKey != "" {
		app.describer = describe.New(cfg.GeminiAPIKey, describe.WithModel(cfg.GeminiModel))
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		notifier, err := notify.New(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Warn("telegram disabled", "error", err)
		} else {
			app.notifier = notifier
		}
	}

	return app
}

// runOnce collects every site sequentially and reports an aggregate
// exit code: 0 all clean, 1 a site produced nothing but errors, 2 a
// site succeeded partially.
func (a *App) runOnce(ctx context.Context, sites []*config.Site, deploy, preview bool) int {
	exit := 0
	for _, site := range sites {
		if len(sites) > 1 {
			fmt.Printf("\n%s\n🌐 %s\n%s\n", strings.Repeat("=", 50), site.Name, strings.Repeat("=", 50))
		}

		result, err := a.collectSite(ctx, site)
		if err != nil {
			a.logger.Error("collection failed", "site", site.Key, "error", err)
			return 1
		}

		fmt.Println(render.Text(result))

		if preview || deploy {
			description := a.describeToday(ctx, site, result)
			payload := render.Build(result, render.Meta{
				SiteKey:  site.Key,
				SiteName: site.Name,
				Timezone: site.Timezone,
			}, description)

			if preview {
				outDir := a.cfg.OutputDir
				if len(sites) > 1 {
					outDir = outDir + "/" + site.Key
				}
				if err := a.publisher.WriteLocal(payload, site.Template, outDir); err != nil {
					a.logger.Error("preview failed", "site", site.Key, "error", err)
					exit = max(exit, 1)
				}
			}
			if deploy && len(result.Events) > 0 {
				if err := a.publisher.Deploy(ctx, payload, site.Template, site.TargetRepo, site.TargetBranch); err != nil {
					a.logger.Error("deploy failed", "site", site.Key, "error", err)
					exit = max(exit, 1)
				}
			}
		}

		a.notifyRun(site, result)

		if len(result.Errors) > 0 {
			if len(result.Events) == 0 {
				exit = max(exit, 1)
			} else {
				exit = max(exit, 2)
			}
		}
	}
	return exit
}

// serve schedules a daily collection per site and exposes metrics
// until the context is cancelled.
func (a *App) serve(ctx context.Context, sites []*config.Site) int {
	sched := scheduler.New()
	for _, site := range sites {
		site := site
		err := sched.Schedule(site.Key, site.Timezone, a.cfg.ScheduleTime, func() {
			runCtx, cancel := context.WithTimeout(context.Background(), 2*a.cfg.RunDeadline())
			defer cancel()
			a.scheduledRun(runCtx, site)
		})
		if err != nil {
			a.logger.Error("failed to schedule site", "site", site.Key, "error", err)
			return 1
		}
	}
	sched.Start()
	defer sched.Stop()
	a.logger.Info("collections scheduled",
		"sites", len(sites),
		"time", a.cfg.ScheduleTime)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	a.logger.Info("metrics listening", "addr", a.cfg.MetricsAddr)

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		return 0
	case err := <-errCh:
		a.logger.Error("metrics server failed", "error", err)
		return 1
	}
}

func (a *App) scheduledRun(ctx context.Context, site *config.Site) {
	result, err := a.collectSite(ctx, site)
	if err != nil {
		a.logger.Error("scheduled collection failed", "site", site.Key, "error", err)
		return
	}

	description := a.describeToday(ctx, site, result)
	payload := render.Build(result, render.Meta{
		SiteKey:  site.Key,
		SiteName: site.Name,
		Timezone: site.Timezone,
	}, description)

	if site.TargetRepo != "" && len(result.Events) > 0 {
		if err := a.publisher.Deploy(ctx, payload, site.Template, site.TargetRepo, site.TargetBranch); err != nil {
			a.logger.Error("deploy failed", "site", site.Key, "error", err)
		}
	}

	a.notifyRun(site, result)
}

func (a *App) collectSite(ctx context.Context, site *config.Site) (*model.Result, error) {
	window := model.NewWindow(time.Now().In(site.Location()), a.cfg.WindowDays)

	result, err := a.coordinator.Collect(ctx, site.ModelSources(), window)
	if err != nil {
		return nil, err
	}

	if a.enricher != nil {
		a.enricher.Events(ctx, result.Events)
	}
	return result, nil
}

func (a *App) describeToday(ctx context.Context, site *config.Site, result *model.Result) string {
	if a.describer == nil || !site.GenerateDescription || len(result.Events) == 0 {
		return ""
	}

	description, err := a.describer.Today(ctx, site.Name, time.Now().In(site.Location()), result.Events)
	if err != nil {
		a.logger.Warn("description generation failed, continuing without it",
			"site", site.Key,
			"error", err)
		return ""
	}
	return description
}

func (a *App) notifyRun(site *config.Site, result *model.Result) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.RunSummary(site.Name, result); err != nil {
		a.logger.Warn("telegram notification failed", "site", site.Key, "error", err)
	}
}
