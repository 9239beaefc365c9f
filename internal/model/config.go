package model

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Config holds all Worldview tool configuration
type Config struct {
	Names       NamesConfig       `mapstructure:"names" yaml:"names"`
	Validation  ValidationConfig  `mapstructure:"validation" yaml:"validation"`
	Limits      LimitsConfig      `mapstructure:"limits" yaml:"limits"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Watch       WatchConfig       `mapstructure:"watch" yaml:"watch"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
}

// NamesConfig controls how concept names and facet labels are compared
type NamesConfig struct {
	CaseSensitive bool   `mapstructure:"case_sensitive" yaml:"case_sensitive"` // false folds case before comparing
	Normalize     string `mapstructure:"normalize" yaml:"normalize"`           // "none" or "nfc"
}

// ValidationConfig toggles optional validation passes
type ValidationConfig struct {
	ResolveReferences    bool `mapstructure:"resolve_references" yaml:"resolve_references"`
	WarnEmptyDocument    bool `mapstructure:"warn_empty_document" yaml:"warn_empty_document"`
	AnnotateBriefForms   bool `mapstructure:"annotate_brief_forms" yaml:"annotate_brief_forms"`
	WarnConflictingTrend bool `mapstructure:"warn_conflicting_trend" yaml:"warn_conflicting_trend"` // ^ together with v
}

// LimitsConfig bounds input sizes before parsing
type LimitsConfig struct {
	MaxDocumentBytes int64 `mapstructure:"max_document_bytes" yaml:"max_document_bytes"`
}

// ConcurrencyConfig controls batch parallelism
type ConcurrencyConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// CacheConfig controls caching of validation results
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskDir   string        `mapstructure:"disk_dir" yaml:"disk_dir"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr              string   `mapstructure:"addr" yaml:"addr"`
	RequestsPerSecond float64  `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int      `mapstructure:"burst" yaml:"burst"`
	AllowOrigins      []string `mapstructure:"allow_origins" yaml:"allow_origins"`     // CORS; empty disables
	TrustedProxies    []string `mapstructure:"trusted_proxies" yaml:"trusted_proxies"` // may set X-Forwarded-For; empty trusts none
}

// WatchConfig controls directory watching
type WatchConfig struct {
	Debounce    time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Extensions  []string      `mapstructure:"extensions" yaml:"extensions"`
	ExcludeDirs []string      `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format  string `mapstructure:"format" yaml:"format"` // text, json, yaml
	Color   bool   `mapstructure:"color" yaml:"color"`
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "worldview-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".worldview", "cache")
	}

	return &Config{
		Names: NamesConfig{
			CaseSensitive: true,
			Normalize:     "none",
		},
		Validation: ValidationConfig{
			ResolveReferences:    true,
			WarnEmptyDocument:    true,
			AnnotateBriefForms:   true,
			WarnConflictingTrend: true,
		},
		Limits: LimitsConfig{
			MaxDocumentBytes: 4 << 20,
		},
		Concurrency: ConcurrencyConfig{
			Workers: runtime.NumCPU(),
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 10 * time.Minute,
			DiskDir:   cacheDir,
			DiskTTL:   24 * time.Hour,
		},
		Server: ServerConfig{
			Addr:              ":8080",
			RequestsPerSecond: 10,
			Burst:             20,
			TrustedProxies:    []string{"127.0.0.1", "::1"},
		},
		Watch: WatchConfig{
			Debounce:    300 * time.Millisecond,
			Extensions:  []string{".wvf"},
			ExcludeDirs: []string{".git", "node_modules", "vendor"},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}
