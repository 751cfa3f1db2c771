package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// MinSecretLength is the minimum accepted auth secret size. Anything
// shorter makes HS256 brute-forceable.
const MinSecretLength = 32

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// AuthConfig holds JWT settings. The secret is shared with whichever
// frontend issues tokens and must be at least MinSecretLength characters.
type AuthConfig struct {
	Secret       string `mapstructure:"secret" yaml:"secret"`
	TokenTTLDays int    `mapstructure:"token_ttl_days" yaml:"token_ttl_days"`
}

// AgentConfig holds settings for the chat agent integration.
type AgentConfig struct {
	Model        string `mapstructure:"model" yaml:"model"`
	MaxTokens    int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	APIKey       string `mapstructure:"api_key" yaml:"api_key"`
	ToolEndpoint string `mapstructure:"tool_endpoint" yaml:"tool_endpoint"`
	TimeoutSec   int    `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// ChatConfig bounds conversation history reconstruction.
type ChatConfig struct {
	MaxHistoryMessages int `mapstructure:"max_history_messages" yaml:"max_history_messages"`
}

// Config is the top-level application configuration.
type Config struct {
	Server       ServerConfig `mapstructure:"server" yaml:"server"`
	DatabasePath string       `mapstructure:"database_path" yaml:"database_path"`
	Auth         AuthConfig   `mapstructure:"auth" yaml:"auth"`
	Agent        AgentConfig  `mapstructure:"agent" yaml:"agent"`
	Chat         ChatConfig   `mapstructure:"chat" yaml:"chat"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskie/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "taskie", "config.yaml")
}

// DefaultDatabasePath returns the default SQLite database location,
// ~/.local/share/taskie/taskie.db.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "taskie.db")
	}
	return filepath.Join(home, ".local", "share", "taskie", "taskie.db")
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		DatabasePath: DefaultDatabasePath(),
		Auth: AuthConfig{
			TokenTTLDays: 7,
		},
		Agent: AgentConfig{
			Model:        "claude-sonnet-4-20250514",
			MaxTokens:    4096,
			ToolEndpoint: "http://localhost:8080",
			TimeoutSec:   30,
		},
		Chat: ChatConfig{
			MaxHistoryMessages: 100,
		},
	}
}

// Load reads configuration from the given YAML file path using Viper.
// Environment variables prefixed with TASKIE_ override file values
// (e.g. TASKIE_AUTH_SECRET, TASKIE_AGENT_API_KEY). A missing file is
// not an error; defaults and the environment still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TASKIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database_path", DefaultDatabasePath())
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.token_ttl_days", 7)
	v.SetDefault("agent.model", "claude-sonnet-4-20250514")
	v.SetDefault("agent.max_tokens", 4096)
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.tool_endpoint", "http://localhost:8080")
	v.SetDefault("agent.timeout_sec", 30)
	v.SetDefault("chat.max_history_messages", 100)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// ValidateSecret checks that the auth secret is present and long enough.
// Called by the serve path; the local TUI never needs a secret.
func (c *Config) ValidateSecret() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf(
			"auth secret is not configured; set auth.secret or TASKIE_AUTH_SECRET " +
				"(generate one with: openssl rand -base64 48)",
		)
	}
	if len(c.Auth.Secret) < MinSecretLength {
		return fmt.Errorf(
			"auth secret must be at least %d characters, got %d",
			MinSecretLength, len(c.Auth.Secret),
		)
	}
	return nil
}
