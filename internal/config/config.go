package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Strategy names understood by the response engine.
const (
	StrategyBestMatch        = "best_match"
	StrategySpecificResponse = "specific_response"
	StrategyLLM              = "llm"
)

// Config holds the application configuration
type Config struct {
	BaseDir string        `mapstructure:"base_dir" validate:"required"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Bot     BotConfig     `mapstructure:"bot"`
	LLM     LLMConfig     `mapstructure:"llm"`
	ChatLog ChatLogConfig `mapstructure:"chatlog"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port" validate:"required"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// BotConfig describes the response engine: its identity, where it keeps its
// statements, which strategies rank candidate responses and what it trains on.
type BotConfig struct {
	Name            string           `mapstructure:"name" validate:"required"`
	StoragePath     string           `mapstructure:"storage_path" validate:"required"`
	DefaultResponse string           `mapstructure:"default_response" validate:"required"`
	Strategies      []StrategyConfig `mapstructure:"strategies" validate:"required,min=1,dive"`
	Corpus          []string         `mapstructure:"corpus"`
	Scripted        []string         `mapstructure:"scripted"`
	CacheTTL        time.Duration    `mapstructure:"cache_ttl" validate:"gte=0"`
}

// StrategyConfig names one matching strategy and its parameters.
type StrategyConfig struct {
	Name   string         `mapstructure:"name" validate:"required,oneof=best_match specific_response llm"`
	Params map[string]any `mapstructure:"params"`
}

// LLMConfig holds the LLM configuration
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	APIKey       string `mapstructure:"api_key"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
}

// Enabled reports whether enough is configured to call the model.
func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && c.Model != ""
}

// ChatLogConfig holds the chat history configuration
type ChatLogConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// MCPConfig toggles the tool endpoint.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultScripted is the list of literal exchanges trained after the corpus.
var DefaultScripted = []string{
	"Hello",
	"Hi there! How can I help you today?",
	"How are you?",
	"I'm doing well, thank you for asking!",
	"What is your name?",
	"I'm a chatbot written in Go. You can call me Chatbot!",
	"What can you do?",
	"I can chat with you and answer questions about the things I was trained on.",
	"Thank you",
	"You're welcome! I'm here to help.",
	"Goodbye",
	"Goodbye! Have a great day!",
	"What is Go?",
	"Go is an open source programming language that makes it simple to build secure, scalable systems.",
	"What is a chatbot?",
	"A chatbot is a program that generates automated responses to what you type.",
	"Tell me a joke",
	"Why don't scientists trust atoms? Because they make up everything!",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", ".")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8000")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("bot.name", "Chatbot")
	v.SetDefault("bot.storage_path", "chatbot_database.sqlite3")
	v.SetDefault("bot.default_response", "I am sorry, but I do not understand. I am still learning.")
	v.SetDefault("bot.strategies", []map[string]any{
		{
			"name": StrategyBestMatch,
			"params": map[string]any{
				"default_response":             "I am sorry, but I do not understand. I am still learning.",
				"maximum_similarity_threshold": 0.90,
			},
		},
	})
	v.SetDefault("bot.corpus", []string{})
	v.SetDefault("bot.scripted", DefaultScripted)
	v.SetDefault("bot.cache_ttl", "10m")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.system_prompt", "")

	v.SetDefault("chatlog.enabled", false)
	v.SetDefault("chatlog.path", "chatlog.sqlite3")

	v.SetDefault("mcp.enabled", false)
}

// Load reads config.yaml from the working directory, or the file named by
// CONFIG_PATH, and applies environment overrides (BASE_DIR, SERVER_PORT, ...).
// A missing config.yaml is not an error; every key has a default.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Resolve makes p absolute against BaseDir unless it already is.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}
