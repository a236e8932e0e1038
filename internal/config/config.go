// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/codesplice/codesplice/pkg/dedup"
)

// Config represents the complete configuration.
type Config struct {
	Chunking    ChunkingConfig    `mapstructure:"chunking" yaml:"chunking"`
	Performance PerformanceConfig `mapstructure:"performance" yaml:"performance"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Models      []ModelConfig     `mapstructure:"models" yaml:"models"`
	Files       FilesConfig       `mapstructure:"files" yaml:"files"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`

	// CustomDelimiters extend the family pattern sets per language.
	CustomDelimiters []CustomDelimiter `mapstructure:"custom_delimiters" yaml:"custom_delimiters"`
	// CustomLanguages map extra extensions to languages.
	CustomLanguages []CustomLanguage `mapstructure:"custom_languages" yaml:"custom_languages"`
}

// ChunkingConfig controls boundary selection.
type ChunkingConfig struct {
	SemanticImportanceThreshold float64 `mapstructure:"semantic_importance_threshold" yaml:"semantic_importance_threshold"`
	SkipDeduplication           bool    `mapstructure:"skip_deduplication" yaml:"skip_deduplication"`
	GrammarDir                  string  `mapstructure:"grammar_dir" yaml:"grammar_dir"`
	WindowLines                 int     `mapstructure:"window_lines" yaml:"window_lines"`
	DedupStorePath              string  `mapstructure:"dedup_store_path" yaml:"dedup_store_path"` // persistent store, empty for in-memory
}

// PerformanceConfig contains resource limits.
type PerformanceConfig struct {
	MaxFileSizeMB       int `mapstructure:"max_file_size_mb" yaml:"max_file_size_mb"`
	ChunkTimeoutSeconds int `mapstructure:"chunk_timeout_seconds" yaml:"chunk_timeout_seconds"`
	ParseTimeoutSeconds int `mapstructure:"parse_timeout_seconds" yaml:"parse_timeout_seconds"`
	MaxChunksPerFile    int `mapstructure:"max_chunks_per_file" yaml:"max_chunks_per_file"`
	MaxASTDepth         int `mapstructure:"max_ast_depth" yaml:"max_ast_depth"`
}

// ConcurrencyConfig controls parallel chunking.
type ConcurrencyConfig struct {
	MaxParallelFiles int `mapstructure:"max_parallel_files" yaml:"max_parallel_files"`
}

// ModelConfig describes an embedding model the chunks must fit.
type ModelConfig struct {
	Name          string `mapstructure:"name" yaml:"name"`
	ContextWindow int    `mapstructure:"context_window" yaml:"context_window"`
	EmbeddingDim  int    `mapstructure:"embedding_dim" yaml:"embedding_dim"`
}

// FilesConfig controls which files the CLI walks.
type FilesConfig struct {
	Include      []string `mapstructure:"include" yaml:"include"`             // glob patterns to include
	Exclude      []string `mapstructure:"exclude" yaml:"exclude"`             // glob patterns to exclude
	UseGitIgnore bool     `mapstructure:"use_gitignore" yaml:"use_gitignore"` // respect .gitignore
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// CustomDelimiter is a user-supplied boundary pattern.
type CustomDelimiter struct {
	Language string `mapstructure:"language" yaml:"language"`
	Kind     string `mapstructure:"kind" yaml:"kind"`
	Start    string `mapstructure:"start" yaml:"start"`
	End      string `mapstructure:"end" yaml:"end"`
	Priority int    `mapstructure:"priority" yaml:"priority"`
}

// CustomLanguage maps file extensions to a language name.
type CustomLanguage struct {
	Name       string   `mapstructure:"name" yaml:"name"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions"`
	Family     string   `mapstructure:"family" yaml:"family"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			SemanticImportanceThreshold: 0.3,
			WindowLines:                 50,
		},
		Performance: PerformanceConfig{
			MaxFileSizeMB:       10,
			ChunkTimeoutSeconds: 30,
			ParseTimeoutSeconds: 10,
			MaxChunksPerFile:    5000,
			MaxASTDepth:         200,
		},
		Concurrency: ConcurrencyConfig{
			MaxParallelFiles: 4,
		},
		Models: []ModelConfig{
			{Name: "default", ContextWindow: 2000, EmbeddingDim: 768},
		},
		Files: FilesConfig{
			Include:      []string{"**/*"},
			Exclude:      []string{"**/.git/**", "**/node_modules/**", "**/vendor/**"},
			UseGitIgnore: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the per-project configuration directory.
func ConfigDir(projectRoot string) string {
	return filepath.Join(projectRoot, ".codesplice")
}

// ConfigPath returns the path to config.yaml.
func ConfigPath(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "config.yaml")
}

// DedupDBPath returns the default persistent dedup store path.
func DedupDBPath(projectRoot string) string {
	return filepath.Join(ConfigDir(projectRoot), "dedup.db")
}

// Load loads configuration from file, falling back to defaults.
// Environment variables prefixed CODESPLICE_ override file values.
func Load(projectRoot string) (*Config, []string, error) {
	cfg := DefaultConfig()
	warnings := []string{}

	configPath := ConfigPath(projectRoot)

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CODESPLICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		warnings = append(warnings, "No config file found, using defaults")
		return cfg, warnings, nil
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply defaults for missing values.
	if cfg.Chunking.SemanticImportanceThreshold == 0 {
		cfg.Chunking.SemanticImportanceThreshold = 0.3
	}
	if cfg.Chunking.WindowLines == 0 {
		cfg.Chunking.WindowLines = 50
	}
	if cfg.Performance.MaxFileSizeMB == 0 {
		cfg.Performance.MaxFileSizeMB = 10
	}
	if cfg.Performance.ChunkTimeoutSeconds == 0 {
		cfg.Performance.ChunkTimeoutSeconds = 30
	}
	if cfg.Performance.ParseTimeoutSeconds == 0 {
		cfg.Performance.ParseTimeoutSeconds = 10
	}
	if cfg.Performance.MaxChunksPerFile == 0 {
		cfg.Performance.MaxChunksPerFile = 5000
	}
	if cfg.Performance.MaxASTDepth == 0 {
		cfg.Performance.MaxASTDepth = 200
	}
	if cfg.Concurrency.MaxParallelFiles == 0 {
		cfg.Concurrency.MaxParallelFiles = 4
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultConfig().Models
		warnings = append(warnings, "No models configured, assuming a 2000 token context window")
	}

	return cfg, warnings, nil
}

// Save saves configuration to file.
func Save(projectRoot string, cfg *Config) error {
	configDir := ConfigDir(projectRoot)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(ConfigPath(projectRoot))
	v.SetConfigType("yaml")

	v.Set("chunking", cfg.Chunking)
	v.Set("performance", cfg.Performance)
	v.Set("concurrency", cfg.Concurrency)
	v.Set("models", cfg.Models)
	v.Set("files", cfg.Files)
	v.Set("logging", cfg.Logging)
	v.Set("custom_delimiters", cfg.CustomDelimiters)
	v.Set("custom_languages", cfg.CustomLanguages)

	return v.WriteConfig()
}

// Validate validates the configuration.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Chunking.SemanticImportanceThreshold < 0 || cfg.Chunking.SemanticImportanceThreshold > 1 {
		errs = append(errs, fmt.Errorf("semantic_importance_threshold must be in [0,1]: %v", cfg.Chunking.SemanticImportanceThreshold))
	}
	if cfg.Performance.MaxFileSizeMB < 1 {
		errs = append(errs, fmt.Errorf("max_file_size_mb must be positive: %d", cfg.Performance.MaxFileSizeMB))
	}
	if cfg.Performance.MaxASTDepth < 10 {
		errs = append(errs, fmt.Errorf("max_ast_depth too small: %d", cfg.Performance.MaxASTDepth))
	}
	if cfg.Concurrency.MaxParallelFiles < 1 {
		errs = append(errs, fmt.Errorf("max_parallel_files must be positive: %d", cfg.Concurrency.MaxParallelFiles))
	}
	for _, m := range cfg.Models {
		if m.ContextWindow <= 0 {
			errs = append(errs, fmt.Errorf("model %q has no context window", m.Name))
		}
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", cfg.Logging.Level))
	}
	for _, d := range cfg.CustomDelimiters {
		if d.Language == "" || d.Start == "" {
			errs = append(errs, fmt.Errorf("custom delimiter needs language and start pattern"))
		}
	}

	return errs
}

// Hash returns a hash of the configuration that affects chunk output.
// Used for detecting when re-chunking is needed.
func (c *Config) Hash() string {
	data := fmt.Sprintf("%v:%v:%d:%v:%v",
		c.Chunking.SemanticImportanceThreshold,
		c.Chunking.WindowLines,
		c.Performance.MaxChunksPerFile,
		c.Models,
		c.CustomDelimiters,
	)
	return dedup.HashHex([]byte(data))
}

// Copy creates a deep copy of the config.
func (c *Config) Copy() *Config {
	out := *c
	out.Models = append([]ModelConfig(nil), c.Models...)
	out.Files.Include = append([]string(nil), c.Files.Include...)
	out.Files.Exclude = append([]string(nil), c.Files.Exclude...)
	out.CustomDelimiters = append([]CustomDelimiter(nil), c.CustomDelimiters...)
	out.CustomLanguages = append([]CustomLanguage(nil), c.CustomLanguages...)
	return &out
}
