package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	LoaderBrowser = "browser"
	LoaderHTTP    = "http"
)

type Config struct {
	HTTPPort       string        `mapstructure:"http_port"`
	LogLevel       string        `mapstructure:"log_level"`
	LLMProvider    string        `mapstructure:"llm_provider"`
	GeminiAPIKey   string        `mapstructure:"gemini_api_key"`
	OpenAIAPIKey   string        `mapstructure:"openai_api_key"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float32       `mapstructure:"temperature"`
	IndexDir       string        `mapstructure:"index_dir"`
	DatabaseURL    string        `mapstructure:"database_url"`
	Loader         string        `mapstructure:"loader"`
	LoaderTimeout  time.Duration `mapstructure:"loader_timeout"`
	LoaderMaxChars int           `mapstructure:"loader_max_chars"`
	ChunkSize      int           `mapstructure:"chunk_size"`
	ChunkOverlap   int           `mapstructure:"chunk_overlap"`
}

// Debug reports whether verbose pipeline logging is on.
func (c *Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "DEBUG")
}

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	cfg.Loader = strings.ToLower(strings.TrimSpace(cfg.Loader))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_port", "8000")
	v.SetDefault("log_level", "INFO")
	v.SetDefault("llm_provider", ProviderGemini)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("openai_api_key", "")
	v.SetDefault("chat_model", "")
	v.SetDefault("embedding_model", "")
	v.SetDefault("temperature", 0.7)
	v.SetDefault("index_dir", "faiss_store")
	v.SetDefault("database_url", "research_chats.db")
	v.SetDefault("loader", LoaderBrowser)
	v.SetDefault("loader_timeout", 30*time.Second)
	v.SetDefault("loader_max_chars", 0)
	v.SetDefault("chunk_size", 1000)
	v.SetDefault("chunk_overlap", 200)
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}

	switch c.Loader {
	case LoaderBrowser, LoaderHTTP:
	default:
		return fmt.Errorf("unsupported LOADER %q", c.Loader)
	}

	if c.IndexDir == "" {
		return fmt.Errorf("INDEX_DIR must not be empty")
	}
	if c.LoaderTimeout <= 0 {
		c.LoaderTimeout = 30 * time.Second
	}
	return nil
}
