package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds all configuration for the research service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port          int           `mapstructure:"port"`
	StatusTimeout time.Duration `mapstructure:"status_timeout"`
	RunRetention  time.Duration `mapstructure:"run_retention"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// LLMConfig points at an OpenAI compatible endpoint (OpenRouter by default)
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type SearchConfig struct {
	Provider            string        `mapstructure:"provider"`
	APIKey              string        `mapstructure:"api_key"`
	Depth               string        `mapstructure:"depth"`
	MaxResults          int           `mapstructure:"max_results"`
	TopResults          int           `mapstructure:"top_results"`
	Timeout             time.Duration `mapstructure:"timeout"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
}

type CacheConfig struct {
	Backend string        `mapstructure:"backend"`
	TTL     time.Duration `mapstructure:"ttl"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type WorkspaceConfig struct {
	Root        string `mapstructure:"root"`
	MaxFileSize int64  `mapstructure:"max_file_size"`
}

type AgentConfig struct {
	MaxIterations       int `mapstructure:"max_iterations"`
	ConfidenceThreshold int `mapstructure:"confidence_threshold"`
	ExecutorMaxTurns    int `mapstructure:"executor_max_turns"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.status_timeout", 2*time.Second)
	v.SetDefault("server.run_retention", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)
	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "anthropic/claude-3.5-sonnet")
	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.depth", "advanced")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.top_results", 3)
	v.SetDefault("search.timeout", 15*time.Second)
	v.SetDefault("search.similarity_threshold", 0.8)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("workspace.root", ".")
	v.SetDefault("workspace.max_file_size", 1<<20)
	v.SetDefault("agent.max_iterations", 5)
	v.SetDefault("agent.confidence_threshold", 75)
	v.SetDefault("agent.executor_max_turns", 20)
	v.SetDefault("metrics.enabled", true)
}

// Load reads deepsearch.yaml (from path, or . and ./config when path is empty) and the
// environment. The file is optional unless path names one.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("deepsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DEEPSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// names used by earlier deployments
	_ = v.BindEnv("llm.api_key", "DEEPSEARCH_LLM_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("llm.model", "DEEPSEARCH_LLM_MODEL", "OPENROUTER_MODEL")
	_ = v.BindEnv("search.api_key", "DEEPSEARCH_SEARCH_API_KEY", "TAVILY_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.port must be > 0", ErrInvalid))
	}
	if c.Agent.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("%w: agent.max_iterations must be > 0", ErrInvalid))
	}
	if c.Agent.ExecutorMaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("%w: agent.executor_max_turns must be > 0", ErrInvalid))
	}
	if c.Agent.ConfidenceThreshold <= 0 || c.Agent.ConfidenceThreshold > 100 {
		errs = append(errs, fmt.Errorf("%w: agent.confidence_threshold must be in 1..100", ErrInvalid))
	}
	if c.Search.SimilarityThreshold <= 0 || c.Search.SimilarityThreshold > 1 {
		errs = append(errs, fmt.Errorf("%w: search.similarity_threshold must be in (0, 1]", ErrInvalid))
	}
	switch c.Search.Provider {
	case "tavily", "brave":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown search.provider %q", ErrInvalid, c.Search.Provider))
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("%w: unknown cache.backend %q", ErrInvalid, c.Cache.Backend))
	}
	return errors.Join(errs...)
}
