package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the newsight engine. It is loaded once at
// startup from an optional YAML file, then overridden from the environment.
// Nothing mutates it afterwards.
type Config struct {
	Environment string `yaml:"environment" envconfig:"NEWSIGHT_ENV"`
	LogLevel    string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	Database struct {
		Path string `yaml:"path" envconfig:"NEWSIGHT_DB_PATH"`
	} `yaml:"database"`

	Search struct {
		BaseURL      string `yaml:"base_url" envconfig:"SEARCH_BASE_URL"`
		ClientID     string `yaml:"client_id" envconfig:"SEARCH_CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" envconfig:"SEARCH_CLIENT_SECRET"`
		SourceName   string `yaml:"source_name" envconfig:"SEARCH_SOURCE_NAME"`
	} `yaml:"search"`

	Ollama struct {
		BaseURL        string `yaml:"base_url" envconfig:"OLLAMA_BASE_URL"`
		AnalysisModel  string `yaml:"analysis_model" envconfig:"OLLAMA_ANALYSIS_MODEL"`
		RecommendModel string `yaml:"recommend_model" envconfig:"OLLAMA_RECOMMEND_MODEL"`
		EmbedModel     string `yaml:"embed_model" envconfig:"OLLAMA_EMBED_MODEL"`
	} `yaml:"ollama"`

	Feeds []FeedConfig `yaml:"feeds"`

	Pipeline struct {
		PerSourceLimit       int     `yaml:"per_source_limit"`
		DuplicateThreshold   float64 `yaml:"duplicate_threshold"`
		ScrapeTimeoutSeconds int     `yaml:"scrape_timeout_seconds"`
		RunTimeoutMinutes    int     `yaml:"run_timeout_minutes"`
		MaxConcurrentRuns    int     `yaml:"max_concurrent_runs"`
		Country              string  `yaml:"country"`
		Language             string  `yaml:"language"`
	} `yaml:"pipeline"`

	Recommend struct {
		CacheTTLMinutes int `yaml:"cache_ttl_minutes"`
		ContextLimit    int `yaml:"context_limit"`
		WindowDays      int `yaml:"window_days"`
	} `yaml:"recommend"`

	Departments []DepartmentRule `yaml:"departments"`
}

// FeedConfig names one fixed RSS/Atom source.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DepartmentRule is a static per-department interest rule used to bias
// relevance ranking. Rules are never mutated by the pipeline.
type DepartmentRule struct {
	Department string   `yaml:"department"`
	Keywords   []string `yaml:"keywords"`
	Category   string   `yaml:"category"`
	Priority   int      `yaml:"priority"`
	Active     bool     `yaml:"active"`
}

// Default returns a config with sensible defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Environment = "local"
	cfg.LogLevel = "info"
	cfg.Database.Path = "./newsight.db"
	cfg.Search.BaseURL = "https://openapi.naver.com"
	cfg.Search.SourceName = "Naver"
	cfg.Ollama.BaseURL = "http://localhost:11434"
	cfg.Ollama.AnalysisModel = "llama3"
	cfg.Ollama.RecommendModel = "llama3"
	cfg.Ollama.EmbedModel = "nomic-embed-text"
	cfg.Feeds = []FeedConfig{
		{Name: "AITimes", URL: "https://www.aitimes.com/rss/allArticle.xml"},
		{Name: "TheGuru", URL: "http://www.theguru.co.kr/data/rss/news.xml"},
	}
	cfg.Pipeline.PerSourceLimit = 10
	cfg.Pipeline.DuplicateThreshold = 0.88
	cfg.Pipeline.ScrapeTimeoutSeconds = 10
	cfg.Pipeline.RunTimeoutMinutes = 10
	cfg.Pipeline.MaxConcurrentRuns = 4
	cfg.Pipeline.Country = "KR"
	cfg.Pipeline.Language = "ko"
	cfg.Recommend.CacheTTLMinutes = 30
	cfg.Recommend.ContextLimit = 40
	cfg.Recommend.WindowDays = 7
	cfg.Departments = []DepartmentRule{
		{Department: "T_CLOUD", Keywords: []string{"cloud", "kubernetes", "serverless", "aws", "gcp"}, Category: "INFRA", Priority: 1, Active: true},
		{Department: "T_NETWORK_INFRA", Keywords: []string{"network", "infrastructure", "5g", "latency"}, Category: "INFRA", Priority: 1, Active: true},
		{Department: "T_AI_SERVICE", Keywords: []string{"ai", "llm", "rag", "vision"}, Category: "LLM", Priority: 1, Active: true},
		{Department: "T_PLATFORM_DEV", Keywords: []string{"platform", "api", "backend", "system design"}, Category: "AI Ecosystem", Priority: 1, Active: true},
		{Department: "T_TELCO_MNO", Keywords: []string{"telecom", "spectrum", "mobile", "5G core"}, Category: "Telco", Priority: 1, Active: true},
		{Department: "T_FINANCE", Keywords: []string{"finance", "fintech", "payment"}, Category: "AI Ecosystem", Priority: 1, Active: true},
	}
	return cfg
}

// Load reads the YAML file at path (when it exists), applies environment
// overrides, validates and returns the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures deep inside the pipeline.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Pipeline.PerSourceLimit < 1 {
		return fmt.Errorf("pipeline.per_source_limit must be >= 1")
	}
	if c.Pipeline.DuplicateThreshold <= 0 || c.Pipeline.DuplicateThreshold > 1 {
		return fmt.Errorf("pipeline.duplicate_threshold must be in (0, 1]")
	}
	if c.Pipeline.MaxConcurrentRuns < 1 {
		return fmt.Errorf("pipeline.max_concurrent_runs must be >= 1")
	}
	if c.Recommend.ContextLimit < 1 {
		return fmt.Errorf("recommend.context_limit must be >= 1")
	}
	for _, f := range c.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("feed %q has no URL", f.Name)
		}
	}
	return nil
}

// ScrapeTimeout returns the per-article scrape timeout as a duration.
func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Pipeline.ScrapeTimeoutSeconds) * time.Second
}

// RunTimeout bounds one full pipeline run.
func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.Pipeline.RunTimeoutMinutes) * time.Minute
}

// RecommendCacheTTL returns how long a recommendation response stays cached.
func (c *Config) RecommendCacheTTL() time.Duration {
	return time.Duration(c.Recommend.CacheTTLMinutes) * time.Minute
}

// InterestMap resolves the active department rules into an immutable
// department -> interest keywords map, higher priority rules first.
func (c *Config) InterestMap() map[string][]string {
	rules := make([]DepartmentRule, 0, len(c.Departments))
	for _, r := range c.Departments {
		if r.Active {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Priority > rules[j].Priority })

	m := make(map[string][]string, len(rules))
	for _, r := range rules {
		m[r.Department] = append(m[r.Department], r.Keywords...)
	}
	return m
}
