package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"proposal_assistant/generator"
)

const (
	ModeAuto    = "auto"
	ModeLive    = "live"
	ModeOffline = "offline"
)

// Config is the process configuration. JSON files load too, being valid YAML.
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
}

type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	Mode         string        `yaml:"mode"`
	APIKeyEnv    string        `yaml:"api_key_env"`
	BaseURL      string        `yaml:"base_url"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	OfflineDelay time.Duration `yaml:"offline_delay"`

	// APIKey is read from the environment variable named by APIKeyEnv, never
	// from the file.
	APIKey string `yaml:"-"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type StoreConfig struct {
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
}

type LogConfig struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider:     "gemini",
			Mode:         ModeAuto,
			APIKeyEnv:    "API_KEY",
			Temperature:  generator.DefaultTemperature,
			Timeout:      60 * time.Second,
			OfflineDelay: generator.DefaultOfflineDelay,
		},
		Server: ServerConfig{
			Addr: ":8080",
			CORSOrigins: []string{
				"http://localhost:3000",
				"http://localhost:5173",
				"http://127.0.0.1:3000",
				"http://127.0.0.1:5173",
			},
			RequestTimeout: 60 * time.Second,
		},
		Store: StoreConfig{TTL: 24 * time.Hour},
		Log:   LogConfig{Mode: "prod", Level: "info"},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if cfg.LLM.Provider == "gemini" && cfg.LLM.Model == "" {
		cfg.LLM.Model = generator.DefaultGeminiModel
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if c.LLM.APIKeyEnv != "" {
		c.LLM.APIKey = strings.TrimSpace(getenv(c.LLM.APIKeyEnv))
	}
	if v := getenv("PROPOSAL_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("PROPOSAL_REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := getenv("PROPOSAL_LLM_MODE"); v != "" {
		c.LLM.Mode = strings.ToLower(v)
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "gemini", "openai":
	case "deepseek":
		if c.LLM.BaseURL == "" {
			errs = append(errs, errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)"))
		}
	default:
		errs = append(errs, fmt.Errorf("llm provider %q not supported", c.LLM.Provider))
	}
	switch c.LLM.Mode {
	case ModeAuto, ModeLive, ModeOffline:
	default:
		errs = append(errs, fmt.Errorf("llm mode %q not supported", c.LLM.Mode))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, errors.New("llm.timeout must be positive"))
	}
	if c.LLM.OfflineDelay < 0 {
		errs = append(errs, errors.New("llm.offline_delay must not be negative"))
	}
	return errors.Join(errs...)
}

// ResolveMode decides how the agent is built. Auto picks live when a key is
// present; live without a key is unconfigured and fails every submission.
func (c Config) ResolveMode() generator.Mode {
	switch c.LLM.Mode {
	case ModeOffline:
		return generator.ModeOffline
	case ModeLive:
		if c.LLM.APIKey == "" {
			return generator.ModeUnconfigured
		}
		return generator.ModeLive
	default:
		if c.LLM.APIKey == "" {
			return generator.ModeOffline
		}
		return generator.ModeLive
	}
}

// Settings is the slice of config the LLM clients need.
func (c Config) Settings() *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider:    c.LLM.Provider,
		Model:       c.LLM.Model,
		APIKey:      c.LLM.APIKey,
		BaseURL:     c.LLM.BaseURL,
		Temperature: c.LLM.Temperature,
	}
}
