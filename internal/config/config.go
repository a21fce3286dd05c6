// Package config loads the typed application configuration from Viper.
// Every key has a default so the service starts with no config file.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/agrisense/advisor/internal/advisor"
	"github.com/agrisense/advisor/internal/artifact"
	"github.com/agrisense/advisor/internal/engine"
	"github.com/agrisense/advisor/internal/knowledge"
	"github.com/agrisense/advisor/internal/llm"
)

var validate = validator.New()

// EngineConfig sizes retrieval, ranking, caching and sessions.
type EngineConfig struct {
	Alpha           float64       `mapstructure:"alpha" validate:"gte=0,lte=1"`
	MinConfidence   float64       `mapstructure:"min_confidence" validate:"gte=0,lte=1"`
	TopKMax         int           `mapstructure:"top_k_max" validate:"gte=1"`
	DefaultTopK     int           `mapstructure:"default_top_k" validate:"gte=1"`
	CacheSize       int           `mapstructure:"cache_size" validate:"gte=1"`
	SessionCapacity int           `mapstructure:"session_capacity" validate:"gte=1"`
	SessionTurns    int           `mapstructure:"session_turns" validate:"gte=1"`
	EmbedTimeout    time.Duration `mapstructure:"embed_timeout" validate:"gte=0"`
}

// AdvisorConfig controls advice generation.
type AdvisorConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxHistory         int           `mapstructure:"max_history" validate:"gte=0"`
	MaxPromptChars     int           `mapstructure:"max_prompt_chars" validate:"gte=500"`
	BreakerMaxFailures uint32        `mapstructure:"max_failures" validate:"gte=1"`
	BreakerOpenTimeout time.Duration `mapstructure:"open_timeout" validate:"gt=0"`
}

// ArtifactsConfig locates the knowledge base artifacts.
type ArtifactsConfig struct {
	Source         string `mapstructure:"source" validate:"oneof=file sqlite"`
	EntriesPath    string `mapstructure:"entries_path" validate:"required_if=Source file"`
	EmbeddingsPath string `mapstructure:"embeddings_path"`
	SQLitePath     string `mapstructure:"sqlite_path" validate:"required_if=Source sqlite"`
	Watch          bool   `mapstructure:"watch"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"gte=1,lte=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Config is the full application configuration.
type Config struct {
	Engine    EngineConfig
	Advisor   AdvisorConfig
	LLM       llm.Config
	Artifacts ArtifactsConfig
	Server    ServerConfig
	Log       LogConfig
	DataDir   string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	ec := engine.DefaultConfig()
	ac := advisor.DefaultConfig()
	return Config{
		Engine: EngineConfig{
			Alpha:           ec.Tuning.Alpha,
			MinConfidence:   ec.Tuning.MinConfidence,
			TopKMax:         ec.Tuning.TopKMax,
			DefaultTopK:     ec.DefaultTopK,
			CacheSize:       ec.CacheSize,
			SessionCapacity: ec.SessionCapacity,
			SessionTurns:    ec.SessionTurns,
			EmbedTimeout:    ec.EmbedTimeout,
		},
		Advisor: AdvisorConfig{
			Timeout:            ac.Timeout,
			MaxHistory:         ac.MaxHistory,
			MaxPromptChars:     ac.MaxPromptChars,
			BreakerMaxFailures: ac.BreakerMaxFailures,
			BreakerOpenTimeout: ac.BreakerOpenTimeout,
		},
		Artifacts: ArtifactsConfig{
			Source:         artifact.KindFile,
			EntriesPath:    "data/kb_entries.json",
			EmbeddingsPath: "data/kb_embeddings.json",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		DataDir: DefaultDataDir,
	}
}

// Load reads every section from Viper, falling back to Default for unset
// keys, and validates the result.
func Load() (Config, error) {
	d := Default()

	llmCfg, err := LoadLLMConfig()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Engine: EngineConfig{
			Alpha:           getFloat64WithDefault("engine.alpha", d.Engine.Alpha),
			MinConfidence:   getFloat64WithDefault("engine.min_confidence", d.Engine.MinConfidence),
			TopKMax:         getIntWithDefault("engine.top_k_max", d.Engine.TopKMax),
			DefaultTopK:     getIntWithDefault("engine.default_top_k", d.Engine.DefaultTopK),
			CacheSize:       getIntWithDefault("engine.cache_size", d.Engine.CacheSize),
			SessionCapacity: getIntWithDefault("engine.session_capacity", d.Engine.SessionCapacity),
			SessionTurns:    getIntWithDefault("engine.session_turns", d.Engine.SessionTurns),
			EmbedTimeout:    getDurationWithDefault("engine.embed_timeout", d.Engine.EmbedTimeout),
		},
		Advisor: AdvisorConfig{
			Timeout:            getDurationWithDefault("advisor.timeout", d.Advisor.Timeout),
			MaxHistory:         getIntWithDefault("advisor.max_history", d.Advisor.MaxHistory),
			MaxPromptChars:     getIntWithDefault("advisor.max_prompt_chars", d.Advisor.MaxPromptChars),
			BreakerMaxFailures: uint32(getIntWithDefault("advisor.breaker.max_failures", int(d.Advisor.BreakerMaxFailures))),
			BreakerOpenTimeout: getDurationWithDefault("advisor.breaker.open_timeout", d.Advisor.BreakerOpenTimeout),
		},
		LLM: llmCfg,
		Artifacts: ArtifactsConfig{
			Source:         getStringWithDefault("artifacts.source", d.Artifacts.Source),
			EntriesPath:    getStringWithDefault("artifacts.entries_path", d.Artifacts.EntriesPath),
			EmbeddingsPath: getStringWithDefault("artifacts.embeddings_path", d.Artifacts.EmbeddingsPath),
			SQLitePath:     getStringWithDefault("artifacts.sqlite_path", d.Artifacts.SQLitePath),
			Watch:          getBoolWithDefault("artifacts.watch", d.Artifacts.Watch),
		},
		Server: ServerConfig{
			Port:           getIntWithDefault("server.port", d.Server.Port),
			AllowedOrigins: getStringSliceWithDefault("server.allowed_origins", d.Server.AllowedOrigins),
		},
		Log: LogConfig{
			Level:  getStringWithDefault("log.level", d.Log.Level),
			Format: getStringWithDefault("log.format", d.Log.Format),
		},
		DataDir: GetDataDir(),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and required paths.
func (c Config) Validate() error {
	for name, section := range map[string]any{
		"engine":    c.Engine,
		"advisor":   c.Advisor,
		"artifacts": c.Artifacts,
		"server":    c.Server,
		"log":       c.Log,
	} {
		if err := validate.Struct(section); err != nil {
			return fmt.Errorf("invalid %s config: %w", name, err)
		}
	}
	if c.Engine.DefaultTopK > c.Engine.TopKMax {
		return fmt.Errorf("invalid engine config: default_top_k %d exceeds top_k_max %d",
			c.Engine.DefaultTopK, c.Engine.TopKMax)
	}
	return nil
}

// EngineOptions converts the engine section.
func (c Config) EngineOptions() engine.Config {
	return engine.Config{
		Tuning: knowledge.Tuning{
			Alpha:         c.Engine.Alpha,
			MinConfidence: c.Engine.MinConfidence,
			TopKMax:       c.Engine.TopKMax,
		},
		DefaultTopK:     c.Engine.DefaultTopK,
		CacheSize:       c.Engine.CacheSize,
		SessionCapacity: c.Engine.SessionCapacity,
		SessionTurns:    c.Engine.SessionTurns,
		EmbedTimeout:    c.Engine.EmbedTimeout,
	}
}

// AdvisorOptions converts the advisor section.
func (c Config) AdvisorOptions() advisor.Config {
	return advisor.Config{
		Timeout:            c.Advisor.Timeout,
		MaxHistory:         c.Advisor.MaxHistory,
		MaxPromptChars:     c.Advisor.MaxPromptChars,
		BreakerMaxFailures: c.Advisor.BreakerMaxFailures,
		BreakerOpenTimeout: c.Advisor.BreakerOpenTimeout,
	}
}

// ArtifactSettings converts the artifacts section.
func (c Config) ArtifactSettings() artifact.Settings {
	return artifact.Settings{
		Kind:           c.Artifacts.Source,
		EntriesPath:    c.Artifacts.EntriesPath,
		EmbeddingsPath: c.Artifacts.EmbeddingsPath,
		SQLitePath:     c.Artifacts.SQLitePath,
	}
}
