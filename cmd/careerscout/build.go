package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gofrs/flock"

	"github.com/amishk599/careerscout/internal/adapter"
	"github.com/amishk599/careerscout/internal/ai"
	"github.com/amishk599/careerscout/internal/ats"
	"github.com/amishk599/careerscout/internal/careers"
	"github.com/amishk599/careerscout/internal/company"
	"github.com/amishk599/careerscout/internal/config"
	"github.com/amishk599/careerscout/internal/discovery"
	"github.com/amishk599/careerscout/internal/fetch"
	"github.com/amishk599/careerscout/internal/filter"
	"github.com/amishk599/careerscout/internal/model"
	"github.com/amishk599/careerscout/internal/notifier"
	"github.com/amishk599/careerscout/internal/pipeline"
	"github.com/amishk599/careerscout/internal/position"
	"github.com/amishk599/careerscout/internal/ratelimit"
	"github.com/amishk599/careerscout/internal/report"
	"github.com/amishk599/careerscout/internal/retry"
	"github.com/amishk599/careerscout/internal/store"
)

// enrichment holds the per-job stages shared by run, complete, locate and review.
type enrichment struct {
	rawPages  model.PageFetcher // no retries; for adapters that classify errors themselves
	pages     model.PageFetcher
	http      *http.Client
	policy    retry.Policy
	scrapin   *adapter.ScrapinAdapter // nil when unconfigured
	locator   *careers.Locator
	extractor *position.Extractor
	runner    *pipeline.Runner
	closers   []func() error
}

func (e *enrichment) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	return errors.Join(errs...)
}

func buildEnrichment(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*enrichment, error) {
	e := &enrichment{
		http:   fetch.NewHTTPClient(cfg.Fetch.Timeout),
		policy: retry.Policy{MaxRetries: cfg.Fetch.MaxRetries, BaseDelay: cfg.Fetch.RetryBaseDelay},
	}

	var renderer fetch.Renderer
	if cfg.Fetch.BrowserFallback() {
		switch cfg.Fetch.BrowserEngine {
		case config.EnginePlaywright:
			pw := fetch.NewPlaywrightRenderer(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
			e.closers = append(e.closers, pw.Close)
			renderer = pw
		default:
			renderer = fetch.NewChromeRenderer(cfg.Fetch.Timeout, cfg.Fetch.UserAgent)
		}
		logger.Debug("browser fallback enabled", "engine", cfg.Fetch.BrowserEngine)
	}

	limiter := ratelimit.NewHostLimiter(cfg.Fetch.PolitenessMin, cfg.Fetch.PolitenessMax)
	e.rawPages = fetch.NewFetcher(e.http, limiter, renderer, cfg.Fetch.UserAgent, logger)
	e.pages = retry.NewRetryPageFetcher(e.rawPages, e.policy, logger)

	oracle, err := buildOracle(ctx, cfg, logger, e)
	if err != nil {
		e.Close()
		return nil, err
	}

	var api model.CompanyDataAPI
	if cfg.Sources.Scrapin.Configured() {
		e.scrapin = adapter.NewScrapinAdapter(cfg.Sources.Scrapin.BaseURL, cfg.Sources.Scrapin.APIKey, e.http)
		api = e.scrapin
	}

	e.locator = careers.NewLocator(e.pages, oracle, careers.Options{
		Threshold:       cfg.Careers.Threshold,
		CloseMargin:     cfg.Careers.CloseMargin,
		MaxCandidates:   cfg.Careers.OracleMaxCandidates,
		OracleTimeout:   cfg.Careers.OracleTimeout,
		BrowserFallback: cfg.Fetch.BrowserFallback(),
	}, logger)
	e.extractor = position.NewExtractor(e.pages, ats.NewClient(e.http), position.Options{
		Threshold:       cfg.Careers.Threshold,
		BrowserFallback: cfg.Fetch.BrowserFallback(),
	}, logger)
	e.runner = pipeline.NewRunner(company.NewResolver(api, e.pages, logger), e.locator, e.extractor, logger)
	return e, nil
}

// buildOracle returns nil when the AI step is disabled.
func buildOracle(ctx context.Context, cfg *config.Config, logger *slog.Logger, e *enrichment) (model.RankingOracle, error) {
	if !cfg.AI.Enabled {
		return nil, nil
	}

	client := &http.Client{Timeout: cfg.AI.Timeout}
	var provider ai.LLMProvider
	switch cfg.AI.Provider {
	case config.ProviderOpenAI:
		provider = ai.NewOpenAIProvider(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, client)
	case config.ProviderGemini:
		gp, err := ai.NewGeminiProvider(ctx, cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("gemini provider: %w", err)
		}
		e.closers = append(e.closers, gp.Close)
		provider = gp
	default:
		provider = ai.NewOllamaProvider(cfg.AI.BaseURL, cfg.AI.Model, client)
	}

	logger.Info("ranking oracle enabled", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	return ai.NewLinkOracle(provider, ai.RankLinksTemplate, cfg.Careers.OracleMaxCandidates, logger), nil
}

// buildOrchestrator wires the four discovery tiers. Sources without
// credentials become placeholders so the attempt log still lists them.
func buildOrchestrator(cfg *config.Config, e *enrichment, logger *slog.Logger) (*discovery.Orchestrator, error) {
	src := cfg.Sources

	wrap := func(a model.SourceAdapter, rpm int) model.SourceAdapter {
		return retry.NewRetryAdapter(ratelimit.NewThrottledAdapter(a, rpm), e.policy, logger)
	}

	var primary model.SourceAdapter = adapter.NewUnconfigured(adapter.SourceScrapin, "sources.scrapin.api_key is empty")
	if e.scrapin != nil {
		primary = wrap(e.scrapin, src.Scrapin.RequestsPerMinute)
	}

	var fallback1 model.SourceAdapter = adapter.NewUnconfigured(adapter.SourceSerpAPI, "sources.serpapi.api_key is empty")
	if src.SerpAPI.Configured() {
		fallback1 = wrap(adapter.NewSerpAPIAdapter(src.SerpAPI.BaseURL, src.SerpAPI.APIKey, e.http), src.SerpAPI.RequestsPerMinute)
	}

	var fallback2 model.SourceAdapter = adapter.NewUnconfigured(adapter.SourcePhantomBuster, "sources.phantombuster.api_key is empty")
	if src.PhantomBuster.Configured() {
		fallback2 = wrap(adapter.NewPhantomBusterAdapter(src.PhantomBuster.BaseURL, src.PhantomBuster.APIKey, src.PhantomBuster.AgentID, e.http), src.PhantomBuster.RequestsPerMinute)
	}

	// LinkedIn pages already go through the per-host politeness limiter.
	lastResort := retry.NewRetryAdapter(
		adapter.NewLinkedInAdapter("", src.LinkedIn.GuestAPI, src.LinkedIn.MaxPages, e.rawPages),
		e.policy, logger,
	)

	return discovery.New(discovery.Sources{
		Primary:          primary,
		Fallback1:        fallback1,
		Fallback2:        fallback2,
		LastResort:       lastResort,
		EnableLastResort: src.LinkedIn.Enabled,
	}, logger)
}

// sinks holds the persistence side of a run.
type sinks struct {
	sink    model.Sink
	sqlite  *store.SQLiteSink // nil when disabled; used for retention cleanup
	closers []func() error
}

func (s *sinks) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func buildSinks(ctx context.Context, cfg *config.Config, dryRun bool, logger *slog.Logger) (*sinks, error) {
	if dryRun {
		logger.Info("dry-run mode enabled, results will not be persisted")
		return &sinks{sink: store.NewNopSink()}, nil
	}

	s := &sinks{}
	multi := store.NewMultiSink(logger)

	if cfg.Store.SQLitePath != "" {
		sqlite, err := store.NewSQLiteSink(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.sqlite = sqlite
		s.closers = append(s.closers, sqlite.Close)
		multi.Add("sqlite", sqlite)
	}

	if cfg.Store.PostgresDSN != "" {
		pg, err := store.NewPostgresSink(ctx, cfg.Store.PostgresDSN)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() error { pg.Close(); return nil })
		multi.Add("postgres", pg)
	}

	if multi.Len() == 0 {
		s.sink = store.NewNopSink()
	} else {
		s.sink = multi
	}
	return s, nil
}

func setupNotifier(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func setupFilter(cfg *config.Config) model.JobFilter {
	return filter.NewTitleAndLocationFilter(filter.Rules{
		TitleKeywords:        cfg.Filters.TitleKeywords,
		TitleExcludeKeywords: cfg.Filters.TitleExcludeKeywords,
		Locations:            cfg.Filters.Locations,
		ExcludeLocations:     cfg.Filters.ExcludeLocations,
	})
}

func queryFrom(cfg *config.Config) model.Query {
	return model.Query{Keyword: cfg.Query.Keyword, Location: cfg.Query.Location, Limit: cfg.Query.Limit}
}

// reportRecorder writes every finished batch to the output artifact.
type reportRecorder struct {
	path   string
	source string
	logger *slog.Logger
}

func (r reportRecorder) Record(b pipeline.Batch) error {
	if err := report.Write(r.path, report.New(b.RunID, r.source, b.GeneratedAt, b.Results)); err != nil {
		return err
	}
	r.logger.Info("wrote results", "path", r.path, "results", len(b.Results))
	return nil
}

// acquireLock takes an exclusive lock next to the output artifact so two
// processes never write it at once.
func acquireLock(outputPath string) (*flock.Flock, error) {
	lk := flock.New(outputPath + ".lock")
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", lk.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("another careerscout process is writing %s (lock %s)", outputPath, lk.Path())
	}
	return lk, nil
}
