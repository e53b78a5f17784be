package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds the full runtime configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	LLM       LLMConfig       `yaml:"llm"`
	HTTP      HTTPConfig      `yaml:"http"`
	Providers ProvidersConfig `yaml:"providers"`
	Retention RetentionConfig `yaml:"retention"`
	Output    OutputConfig    `yaml:"output"`
}

// StoreConfig configures the persistent keyed store.
type StoreConfig struct {
	Path      string        `yaml:"path"`       // sqlite database file
	MemoryTTL time.Duration `yaml:"memory_ttl"` // read-through memory layer TTL
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // openai, ollama
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty"` // custom endpoint (OpenRouter-compatible, Ollama)
	Timeout     time.Duration `yaml:"timeout"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float32       `yaml:"temperature"`
}

// HTTPConfig configures outbound article fetching.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	CheckRobots  bool          `yaml:"check_robots"`
}

// ProvidersConfig configures the literature provider roster.
type ProvidersConfig struct {
	SemanticScholarAPIKey string        `yaml:"semantic_scholar_api_key,omitempty"`
	COREAPIKey            string        `yaml:"core_api_key,omitempty"`
	ResultsPerProvider    int           `yaml:"results_per_provider"`
	Timeout               time.Duration `yaml:"timeout"`
}

// RetentionConfig sets the per-table retention horizon for the cache janitor.
// Model, external, and report caches keep entries far longer than analyses or
// media because they are much more expensive to regenerate.
type RetentionConfig struct {
	Media    time.Duration `yaml:"media"`
	Analyses time.Duration `yaml:"analyses"`
	Model    time.Duration `yaml:"model"`
	External time.Duration `yaml:"external"`
	Report   time.Duration `yaml:"report"`
	// VacuumThreshold triggers storage compaction after a sweep that removed
	// at least this many rows. Zero disables compaction.
	VacuumThreshold int `yaml:"vacuum_threshold"`
}

// OutputConfig controls CLI presentation.
type OutputConfig struct {
	Verbose bool `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	return &Config{
		Store: StoreConfig{
			Path:      filepath.Join(home, ".scicheck", "scicheck.db"),
			MemoryTTL: 10 * time.Minute,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Timeout:     90 * time.Second,
			MaxTokens:   1500,
			Temperature: 0,
		},
		HTTP: HTTPConfig{
			Timeout:      15 * time.Second,
			UserAgent:    "SciCheck/1.0 (+https://github.com/scicheckagent/scicheck)",
			MaxBodyBytes: 2_000_000,
			CheckRobots:  true,
		},
		Providers: ProvidersConfig{
			ResultsPerProvider: 3,
			Timeout:            10 * time.Second,
		},
		Retention: RetentionConfig{
			Media:           30 * 24 * time.Hour,
			Analyses:        7 * 24 * time.Hour,
			Model:           90 * 24 * time.Hour,
			External:        90 * 24 * time.Hour,
			Report:          90 * 24 * time.Hour,
			VacuumThreshold: 50,
		},
	}
}
