// Package config loads setup assistant configuration from flags, environment,
// an optional YAML file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// EnvPrefix is prepended to every environment override, e.g. SETUPQA_RETRIEVAL_K
	EnvPrefix = "SETUPQA"
	// DefaultConfigFile is read from the working directory when --config is not given
	DefaultConfigFile = "setupqa.yaml"
	// MinChunkAdvance is the smallest allowed chunk_size - chunk_overlap.
	// Two characters of every chunk go to the paragraph separator.
	MinChunkAdvance = 3
)

// Config is the root configuration. It is fixed at startup.
type Config struct {
	Provider   string           `mapstructure:"provider" yaml:"provider"`
	Ollama     OllamaConfig     `mapstructure:"ollama" yaml:"ollama"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Models     ModelsConfig     `mapstructure:"models" yaml:"models"`
	Documents  DocumentsConfig  `mapstructure:"documents" yaml:"documents"`
	Index      IndexConfig      `mapstructure:"index" yaml:"index"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval" yaml:"retrieval"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// OllamaConfig holds the inference service address. An empty Host falls
// back to OLLAMA_HOST and then http://127.0.0.1:11434.
type OllamaConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
}

// OpenAIConfig configures an OpenAI-compatible endpoint
type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// ModelsConfig names the embedding and language models
type ModelsConfig struct {
	Embedding string `mapstructure:"embedding" yaml:"embedding"`
	LLM       string `mapstructure:"llm" yaml:"llm"`
}

// DocumentsConfig controls setup guide ingestion
type DocumentsConfig struct {
	Dir           string `mapstructure:"dir" yaml:"dir"`
	ChunkSize     int    `mapstructure:"chunk_size" yaml:"chunk_size"`
	ChunkOverlap  int    `mapstructure:"chunk_overlap" yaml:"chunk_overlap"`
	MaxConcurrent int    `mapstructure:"max_concurrent" yaml:"max_concurrent"`
}

// IndexConfig selects where the vector index lives
type IndexConfig struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url,omitempty"`
}

// RetrievalConfig holds the number of documents placed in the prompt
type RetrievalConfig struct {
	K int `mapstructure:"k" yaml:"k"`
}

// GenerationConfig tunes the language model call
type GenerationConfig struct {
	Temperature     float64 `mapstructure:"temperature" yaml:"temperature"`
	NumPredict      int     `mapstructure:"num_predict" yaml:"num_predict"`
	ValidateRetries int     `mapstructure:"validate_retries" yaml:"validate_retries"`
}

// TelemetryConfig lists the column keywords that are summarized
type TelemetryConfig struct {
	Keywords []string `mapstructure:"keywords" yaml:"keywords"`
}

// ServerConfig configures the web form
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// LoggingConfig configures zap and optional file rotation
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Provider: "ollama",
		Ollama:   OllamaConfig{},
		OpenAI:   OpenAIConfig{BaseURL: "https://api.openai.com/v1"},
		Models: ModelsConfig{
			Embedding: "nomic-embed-text",
			LLM:       "deepseek-r1",
		},
		Documents: DocumentsConfig{
			Dir:           "./setup_docs",
			MaxConcurrent: 3,
		},
		Index: IndexConfig{
			Backend: "sqlite",
			Dir:     "./setup_index",
		},
		Retrieval: RetrievalConfig{K: 3},
		Generation: GenerationConfig{
			Temperature: 0.1,
			NumPredict:  1024,
		},
		Telemetry: TelemetryConfig{Keywords: []string{"Temp", "Shock", "Travel"}},
		Server: ServerConfig{
			Addr:           "127.0.0.1:7860",
			AllowedOrigins: []string{"*"},
			MaxUploadMB:    10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load builds a Config. Precedence: flags, environment, config file, defaults.
// A missing config file is not an error; path may be empty.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound), errors.Is(err, os.ErrNotExist):
			if explicit {
				return nil, fmt.Errorf("config file %s not found", path)
			}
		default:
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagKeys maps CLI flag names onto configuration keys
var flagKeys = map[string]string{
	"provider":         "provider",
	"ollama":           "ollama.host",
	"embedding-model":  "models.embedding",
	"model":            "models.llm",
	"docs":             "documents.dir",
	"chunk-size":       "documents.chunk_size",
	"chunk-overlap":    "documents.chunk_overlap",
	"max-concurrent":   "documents.max_concurrent",
	"backend":          "index.backend",
	"index-dir":        "index.dir",
	"postgres-url":     "index.postgres_url",
	"k":                "retrieval.k",
	"validate-retries": "generation.validate_retries",
	"addr":             "server.addr",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"log-file":         "logging.file",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("provider", d.Provider)
	v.SetDefault("ollama.host", d.Ollama.Host)
	v.SetDefault("openai.base_url", d.OpenAI.BaseURL)
	v.SetDefault("openai.api_key", "")

	v.SetDefault("models.embedding", d.Models.Embedding)
	v.SetDefault("models.llm", d.Models.LLM)

	v.SetDefault("documents.dir", d.Documents.Dir)
	v.SetDefault("documents.chunk_size", d.Documents.ChunkSize)
	v.SetDefault("documents.chunk_overlap", d.Documents.ChunkOverlap)
	v.SetDefault("documents.max_concurrent", d.Documents.MaxConcurrent)

	v.SetDefault("index.backend", d.Index.Backend)
	v.SetDefault("index.dir", d.Index.Dir)
	v.SetDefault("index.postgres_url", "")

	v.SetDefault("retrieval.k", d.Retrieval.K)

	v.SetDefault("generation.temperature", d.Generation.Temperature)
	v.SetDefault("generation.num_predict", d.Generation.NumPredict)
	v.SetDefault("generation.validate_retries", d.Generation.ValidateRetries)

	v.SetDefault("telemetry.keywords", d.Telemetry.Keywords)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("logging.compress", d.Logging.Compress)
}

// Validate checks the configuration for values the pipeline cannot run with
func (c *Config) Validate() error {
	var errs []string

	switch c.Provider {
	case "ollama":
	case "openai":
		if c.OpenAI.BaseURL == "" {
			errs = append(errs, "openai.base_url is required for the openai provider")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown provider %q (want ollama or openai)", c.Provider))
	}

	if strings.TrimSpace(c.Models.Embedding) == "" {
		errs = append(errs, "models.embedding must not be empty")
	}
	if strings.TrimSpace(c.Models.LLM) == "" {
		errs = append(errs, "models.llm must not be empty")
	}

	switch c.Index.Backend {
	case "sqlite":
		if c.Index.Dir == "" {
			errs = append(errs, "index.dir is required for the sqlite backend")
		}
	case "postgres":
		if c.Index.PostgresURL == "" {
			errs = append(errs, "index.postgres_url is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown index backend %q (want sqlite or postgres)", c.Index.Backend))
	}

	if c.Retrieval.K < 1 {
		errs = append(errs, "retrieval.k must be at least 1")
	}
	if c.Documents.ChunkSize < 0 || c.Documents.ChunkOverlap < 0 {
		errs = append(errs, "documents.chunk_size and documents.chunk_overlap must not be negative")
	}
	if c.Documents.ChunkSize > 0 && c.Documents.ChunkSize-c.Documents.ChunkOverlap < MinChunkAdvance {
		errs = append(errs, fmt.Sprintf("documents.chunk_size must exceed documents.chunk_overlap by at least %d", MinChunkAdvance))
	}
	if c.Documents.MaxConcurrent < 1 {
		errs = append(errs, "documents.max_concurrent must be at least 1")
	}
	if c.Generation.ValidateRetries < 0 {
		errs = append(errs, "generation.validate_retries must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Save writes cfg as YAML, creating parent directories as needed
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
