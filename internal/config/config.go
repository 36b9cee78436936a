package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for careerscout.
type Config struct {
	Query        QueryConfig
	Sources      SourcesConfig
	Fetch        FetchConfig
	Careers      CareersConfig
	AI           AIConfig
	Store        StoreConfig
	Output       OutputConfig
	Filters      FilterConfig
	Notification NotificationConfig
	Schedule     ScheduleConfig
}

// QueryConfig is the discovery query.
type QueryConfig struct {
	Keyword  string `yaml:"keyword"`
	Location string `yaml:"location"`
	Limit    int    `yaml:"limit"`
}

// SourceConfig describes one API-backed discovery source.
type SourceConfig struct {
	APIKey            string `yaml:"api_key"`
	BaseURL           string `yaml:"base_url"`
	AgentID           string `yaml:"agent_id"` // phantombuster only
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// Configured reports whether the source has credentials.
func (s SourceConfig) Configured() bool { return s.APIKey != "" }

// LinkedInConfig controls the last-resort scraping tier.
type LinkedInConfig struct {
	Enabled  bool
	GuestAPI bool
	MaxPages int
}

// SourcesConfig lists the discovery tiers in cascade order.
type SourcesConfig struct {
	Scrapin       SourceConfig
	SerpAPI       SourceConfig
	PhantomBuster SourceConfig
	LinkedIn      LinkedInConfig
}

// FetchConfig controls page fetching.
type FetchConfig struct {
	Timeout        time.Duration
	UserAgent      string
	Mode           string // "http" or "browser"
	BrowserEngine  string // "chromedp" or "playwright"
	PolitenessMin  time.Duration
	PolitenessMax  time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// BrowserFallback reports whether pages may be re-fetched in a browser.
func (f FetchConfig) BrowserFallback() bool { return f.Mode == FetchModeBrowser }

// CareersConfig tunes the career page locator.
type CareersConfig struct {
	Threshold           float64
	CloseMargin         float64
	OracleMaxCandidates int
	OracleTimeout       time.Duration
}

// AIConfig controls the optional ranking oracle.
type AIConfig struct {
	Enabled  bool
	Provider string // ollama, openai or gemini
	BaseURL  string
	Model    string
	APIKey   string
	Timeout  time.Duration // per-request timeout
}

// StoreConfig selects the persistence sinks. Empty values disable a sink.
type StoreConfig struct {
	SQLitePath  string
	PostgresDSN string
	Retention   time.Duration // 0 keeps rows forever
}

// OutputConfig controls the JSON artifact.
type OutputConfig struct {
	Path        string `yaml:"path"`
	SourceLabel string `yaml:"source_label"`
}

// FilterConfig holds keyword and location filter settings.
type FilterConfig struct {
	TitleKeywords        []string `yaml:"title_keywords"`
	TitleExcludeKeywords []string `yaml:"title_exclude_keywords"`
	Locations            []string `yaml:"locations"`
	ExcludeLocations     []string `yaml:"exclude_locations"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string `yaml:"type"`        // "log" or "slack"
	WebhookURL string `yaml:"webhook_url"` // required if type is "slack"
}

// ScheduleConfig controls watch mode.
type ScheduleConfig struct {
	Interval time.Duration
}

const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"

	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"

	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	// KeyringPrefix marks an api_key stored in the OS keyring.
	KeyringPrefix = "keyring:"

	slackWebhookPrefix = "https://hooks.slack.com/"
)

var (
	defaultAIBaseURL = map[string]string{
		ProviderOllama: "http://localhost:11434",
		ProviderOpenAI: "https://api.openai.com/v1",
	}
	defaultAIModel = map[string]string{
		ProviderOllama: "gpt-oss:120b-cloud",
		ProviderOpenAI: "gpt-4o-mini",
		ProviderGemini: "gemini-1.5-flash",
	}
)

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	Query        QueryConfig        `yaml:"query"`
	Sources      rawSourcesConfig   `yaml:"sources"`
	Fetch        rawFetchConfig     `yaml:"fetch"`
	Careers      rawCareersConfig   `yaml:"careers"`
	AI           rawAIConfig        `yaml:"ai"`
	Store        rawStoreConfig     `yaml:"store"`
	Output       OutputConfig       `yaml:"output"`
	Filters      FilterConfig       `yaml:"filters"`
	Notification NotificationConfig `yaml:"notification"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
}

type rawSourcesConfig struct {
	Scrapin       SourceConfig      `yaml:"scrapin"`
	SerpAPI       SourceConfig      `yaml:"serpapi"`
	PhantomBuster SourceConfig      `yaml:"phantombuster"`
	LinkedIn      rawLinkedInConfig `yaml:"linkedin"`
}

type rawLinkedInConfig struct {
	Enabled  bool  `yaml:"enabled"`
	GuestAPI *bool `yaml:"guest_api"`
	MaxPages int   `yaml:"max_pages"`
}

type rawFetchConfig struct {
	Timeout        string `yaml:"timeout"`
	UserAgent      string `yaml:"user_agent"`
	Mode           string `yaml:"mode"`
	BrowserEngine  string `yaml:"browser_engine"`
	PolitenessMin  string `yaml:"politeness_min"`
	PolitenessMax  string `yaml:"politeness_max"`
	MaxRetries     *int   `yaml:"max_retries"`
	RetryBaseDelay string `yaml:"retry_base_delay"`
}

type rawCareersConfig struct {
	Threshold           *float64 `yaml:"threshold"`
	CloseMargin         *float64 `yaml:"close_margin"`
	OracleMaxCandidates int      `yaml:"oracle_max_candidates"`
	OracleTimeout       string   `yaml:"oracle_timeout"`
}

type rawAIConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	Timeout  string `yaml:"timeout"`
}

type rawStoreConfig struct {
	SQLitePath  string `yaml:"sqlite_path"`
	PostgresDSN string `yaml:"postgres_dsn"`
	Retention   string `yaml:"retention"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
}

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromRaw(raw rawConfig) (*Config, error) {
	var d durations
	cfg := &Config{
		Query:        raw.Query,
		Output:       raw.Output,
		Filters:      raw.Filters,
		Notification: raw.Notification,
	}
	if cfg.Query.Limit == 0 {
		cfg.Query.Limit = 25
	}

	cfg.Sources = SourcesConfig{
		Scrapin:       withSourceDefaults(raw.Sources.Scrapin, "https://api.scrapin.io", 30),
		SerpAPI:       withSourceDefaults(raw.Sources.SerpAPI, "https://serpapi.com", 30),
		PhantomBuster: withSourceDefaults(raw.Sources.PhantomBuster, "https://api.phantombuster.com", 10),
		LinkedIn: LinkedInConfig{
			Enabled:  raw.Sources.LinkedIn.Enabled,
			GuestAPI: raw.Sources.LinkedIn.GuestAPI == nil || *raw.Sources.LinkedIn.GuestAPI,
			MaxPages: orInt(raw.Sources.LinkedIn.MaxPages, 2),
		},
	}

	f := raw.Fetch
	cfg.Fetch = FetchConfig{
		Timeout:        d.parse("fetch.timeout", f.Timeout, 30*time.Second),
		UserAgent:      orString(f.UserAgent, DefaultUserAgent),
		Mode:           orString(f.Mode, FetchModeHTTP),
		BrowserEngine:  orString(f.BrowserEngine, EngineChromedp),
		PolitenessMin:  d.parse("fetch.politeness_min", f.PolitenessMin, time.Second),
		PolitenessMax:  d.parse("fetch.politeness_max", f.PolitenessMax, 2*time.Second),
		MaxRetries:     2,
		RetryBaseDelay: d.parse("fetch.retry_base_delay", f.RetryBaseDelay, 2*time.Second),
	}
	if f.MaxRetries != nil {
		cfg.Fetch.MaxRetries = *f.MaxRetries
	}

	c := raw.Careers
	cfg.Careers = CareersConfig{
		Threshold:           0.4,
		CloseMargin:         0.1,
		OracleMaxCandidates: orInt(c.OracleMaxCandidates, 20),
		OracleTimeout:       d.parse("careers.oracle_timeout", c.OracleTimeout, 90*time.Second),
	}
	if c.Threshold != nil {
		cfg.Careers.Threshold = *c.Threshold
	}
	if c.CloseMargin != nil {
		cfg.Careers.CloseMargin = *c.CloseMargin
	}

	provider := orString(raw.AI.Provider, ProviderOllama)
	cfg.AI = AIConfig{
		Enabled:  raw.AI.Enabled,
		Provider: provider,
		BaseURL:  orString(raw.AI.BaseURL, defaultAIBaseURL[provider]),
		Model:    orString(raw.AI.Model, defaultAIModel[provider]),
		APIKey:   raw.AI.APIKey,
		Timeout:  d.parse("ai.timeout", raw.AI.Timeout, 60*time.Second),
	}

	cfg.Store = StoreConfig{
		SQLitePath:  orString(raw.Store.SQLitePath, "careerscout.db"),
		PostgresDSN: raw.Store.PostgresDSN,
		Retention:   d.parse("store.retention", raw.Store.Retention, 0),
	}

	cfg.Output.Path = orString(cfg.Output.Path, "job_discoveries.json")
	cfg.Output.SourceLabel = orString(cfg.Output.SourceLabel, "careerscout")
	cfg.Notification.Type = orString(cfg.Notification.Type, "log")
	cfg.Schedule.Interval = d.parse("schedule.interval", raw.Schedule.Interval, 6*time.Hour)

	if d.err != nil {
		return nil, d.err
	}
	return cfg, nil
}

// durations parses duration fields, keeping the first error.
type durations struct {
	err error
}

func (d *durations) parse(field, raw string, def time.Duration) time.Duration {
	if raw == "" || d.err != nil {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		d.err = fmt.Errorf("parse %s %q: %w", field, raw, err)
		return def
	}
	return v
}

func withSourceDefaults(s SourceConfig, baseURL string, rpm int) SourceConfig {
	s.BaseURL = strings.TrimRight(orString(s.BaseURL, baseURL), "/")
	s.RequestsPerMinute = orInt(s.RequestsPerMinute, rpm)
	return s
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(cfg *Config) error {
	s := cfg.Sources
	if !s.Scrapin.Configured() && !s.SerpAPI.Configured() && !s.PhantomBuster.Configured() && !s.LinkedIn.Enabled {
		return fmt.Errorf("no discovery source configured: set an api_key under sources or enable sources.linkedin")
	}
	if s.PhantomBuster.Configured() && s.PhantomBuster.AgentID == "" {
		return fmt.Errorf("sources.phantombuster.agent_id is required when its api_key is set")
	}
	if s.LinkedIn.MaxPages < 0 {
		return fmt.Errorf("sources.linkedin.max_pages must not be negative, got %d", s.LinkedIn.MaxPages)
	}

	if strings.TrimSpace(cfg.Query.Keyword) == "" {
		return fmt.Errorf("query.keyword is required")
	}
	if cfg.Query.Limit <= 0 {
		return fmt.Errorf("query.limit must be positive, got %d", cfg.Query.Limit)
	}

	f := cfg.Fetch
	if f.PolitenessMin <= 0 || f.PolitenessMax <= 0 {
		return fmt.Errorf("fetch.politeness_min and fetch.politeness_max must be positive")
	}
	if f.PolitenessMin > f.PolitenessMax {
		return fmt.Errorf("fetch.politeness_min (%v) must not exceed fetch.politeness_max (%v)", f.PolitenessMin, f.PolitenessMax)
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %v", f.Timeout)
	}
	if f.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative, got %d", f.MaxRetries)
	}
	if f.Mode != FetchModeHTTP && f.Mode != FetchModeBrowser {
		return fmt.Errorf("fetch.mode must be %q or %q, got %q", FetchModeHTTP, FetchModeBrowser, f.Mode)
	}
	if f.BrowserEngine != EngineChromedp && f.BrowserEngine != EnginePlaywright {
		return fmt.Errorf("fetch.browser_engine must be %q or %q, got %q", EngineChromedp, EnginePlaywright, f.BrowserEngine)
	}

	if cfg.Careers.Threshold <= 0 || cfg.Careers.Threshold > 1 {
		return fmt.Errorf("careers.threshold must be in (0,1], got %v", cfg.Careers.Threshold)
	}
	if cfg.Careers.CloseMargin < 0 {
		return fmt.Errorf("careers.close_margin must not be negative, got %v", cfg.Careers.CloseMargin)
	}

	if cfg.Notification.Type != "log" && cfg.Notification.Type != "slack" {
		return fmt.Errorf("notification.type must be \"log\" or \"slack\", got %q", cfg.Notification.Type)
	}
	if cfg.Notification.Type == "slack" {
		if cfg.Notification.WebhookURL == "" {
			return fmt.Errorf("notification.webhook_url is required when type is \"slack\"")
		}
		if !strings.HasPrefix(cfg.Notification.WebhookURL, slackWebhookPrefix) {
			return fmt.Errorf("notification.webhook_url must start with %s", slackWebhookPrefix)
		}
	}

	if cfg.AI.Enabled {
		switch cfg.AI.Provider {
		case ProviderOllama:
		case ProviderOpenAI, ProviderGemini:
			if cfg.AI.APIKey == "" {
				return fmt.Errorf("ai.api_key is required when ai.provider is %q", cfg.AI.Provider)
			}
		default:
			return fmt.Errorf("ai.provider must be one of ollama, openai, gemini; got %q", cfg.AI.Provider)
		}
		if cfg.AI.Provider != ProviderGemini && cfg.AI.BaseURL == "" {
			return fmt.Errorf("ai.base_url is required when ai.enabled is true")
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
	}

	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}

	return nil
}

// ResolveSecrets replaces every api_key of the form keyring:<account> with
// the value returned by lookup.
func (c *Config) ResolveSecrets(lookup func(account string) (string, error)) error {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"sources.scrapin.api_key", &c.Sources.Scrapin.APIKey},
		{"sources.serpapi.api_key", &c.Sources.SerpAPI.APIKey},
		{"sources.phantombuster.api_key", &c.Sources.PhantomBuster.APIKey},
		{"ai.api_key", &c.AI.APIKey},
		{"store.postgres_dsn", &c.Store.PostgresDSN},
	}
	for _, f := range fields {
		account, ok := strings.CutPrefix(*f.ptr, KeyringPrefix)
		if !ok {
			continue
		}
		v, err := lookup(account)
		if err != nil {
			return fmt.Errorf("resolve %s from keyring: %w", f.name, err)
		}
		*f.ptr = v
	}
	return nil
}
