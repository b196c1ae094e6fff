package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingCredential marks configuration that cannot start any work.
var ErrMissingCredential = errors.New("missing required credential")

// Error is a configuration error naming the offending setting.
type Error struct {
	Setting string
	Env     string
	Err     error
}

func (e *Error) Error() string {
	if e.Env != "" {
		return fmt.Sprintf("config %s (env %s): %v", e.Setting, e.Env, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Setting, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	LLM         LLMConfig         `yaml:"llm"`
	Generation  GenerationConfig  `yaml:"generation"`
	Embeddings  EmbeddingsConfig  `yaml:"embeddings"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Cron        CronConfig        `yaml:"cron"`
	Log         LogConfig         `yaml:"log"`
	Prompts     map[string]string `yaml:"prompts"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string      `yaml:"driver"` // sqlite, postgres, mongo
	Path   string      `yaml:"path"`
	DSN    string      `yaml:"dsn"`
	Mongo  MongoConfig `yaml:"mongo"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type LLMConfig struct {
	ApiURL         string        `yaml:"api_url"`
	ApiKey         string        `yaml:"api_key"`
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Timeout        time.Duration `yaml:"timeout"`
}

type GenerationConfig struct {
	Output       string        `yaml:"output"`
	ArticleDelay time.Duration `yaml:"article_delay"` // between generated articles
	ItemDelay    time.Duration `yaml:"item_delay"`    // between per-article LLM updates
}

type EmbeddingsConfig struct {
	BatchSize  int           `yaml:"batch_size"`
	BatchDelay time.Duration `yaml:"batch_delay"`
	Threshold  float64       `yaml:"threshold"`
	MatchCount int           `yaml:"match_count"`
}

type ReliabilityConfig struct {
	ResultsFile string `yaml:"results_file"`
}

type CronConfig struct {
	EmbeddingInterval   string `yaml:"embedding_interval"`
	ReliabilityInterval string `yaml:"reliability_interval"`
}

type LogConfig struct {
	Mode string `yaml:"mode"` // dev, prod
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3000",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "data/articles.db",
			Mongo: MongoConfig{
				Database:   "mental_health",
				Collection: "articles",
			},
		},
		LLM: LLMConfig{
			ApiURL:         "https://api.openai.com/v1",
			Model:          "gpt-4o",
			EmbeddingModel: "text-embedding-3-small",
			Timeout:        2 * time.Minute,
		},
		Generation: GenerationConfig{
			Output:       "articles-data.json",
			ArticleDelay: 5 * time.Second,
			ItemDelay:    time.Second,
		},
		Embeddings: EmbeddingsConfig{
			BatchSize:  5,
			BatchDelay: time.Second,
			Threshold:  0.7,
			MatchCount: 5,
		},
		Reliability: ReliabilityConfig{
			ResultsFile: "reliability-analysis-results.json",
		},
		Cron: CronConfig{
			EmbeddingInterval:   "*/30 * * * *",
			ReliabilityInterval: "0 3 * * *",
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}

// Load reads .env, the YAML file at configPath (if present) and environment overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", configPath, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		cfg.Server.Mode = v
	}
	if v := os.Getenv("DB_DRIVER"); v != "" {
		cfg.Database.Driver = strings.ToLower(v)
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Database.Mongo.URI = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.ApiKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.LLM.ApiURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_EMBED_MODEL"); v != "" {
		cfg.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
}

// RequireLLM checks the settings needed to call the text-generation API.
func (c *Config) RequireLLM() error {
	if c.LLM.ApiURL == "" {
		return &Error{Setting: "llm.api_url", Env: "OPENAI_BASE_URL", Err: ErrMissingCredential}
	}
	if c.LLM.ApiKey == "" {
		return &Error{Setting: "llm.api_key", Env: "OPENAI_API_KEY", Err: ErrMissingCredential}
	}
	return nil
}

// RequireStore checks the settings needed to open the configured article store.
func (c *Config) RequireStore() error {
	switch c.Database.Driver {
	case "sqlite", "":
		if c.Database.Path == "" {
			return &Error{Setting: "database.path", Env: "DB_PATH", Err: ErrMissingCredential}
		}
	case "postgres":
		if c.Database.DSN == "" {
			return &Error{Setting: "database.dsn", Env: "DATABASE_URL", Err: ErrMissingCredential}
		}
	case "mongo":
		if c.Database.Mongo.URI == "" {
			return &Error{Setting: "database.mongo.uri", Env: "MONGO_URI", Err: ErrMissingCredential}
		}
	default:
		return &Error{Setting: "database.driver", Env: "DB_DRIVER", Err: fmt.Errorf("unsupported driver %q", c.Database.Driver)}
	}
	return nil
}

// Prompt returns a configured prompt override, or fallback when none is set.
func (c *Config) Prompt(key, fallback string) string {
	if p, ok := c.Prompts[key]; ok && strings.TrimSpace(p) != "" {
		return p
	}
	return fallback
}

// GetServerAddress returns the listen address for the HTTP server.
func (c *Config) GetServerAddress() string {
	if _, err := strconv.Atoi(c.Server.Port); err == nil {
		return ":" + c.Server.Port
	}
	return c.Server.Port
}
