package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `json:"server"`
	Database   DatabaseConfig   `json:"database"`
	MarketData MarketDataConfig `json:"market_data"`
	Groq       GroqConfig       `json:"groq"`
	Serper     SerperConfig     `json:"serper"`
	Agent      AgentConfig      `json:"agent"`
	JWTSecret  string           `json:"jwt_secret"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type MarketDataConfig struct {
	Path string `json:"path"`
}

type GroqConfig struct {
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url"`
	Model        string `json:"model"`
	SummaryModel string `json:"summary_model"`
}

type SerperConfig struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url"`
}

type AgentConfig struct {
	MaxIterations      int    `json:"max_iterations"`
	RecentLimit        int    `json:"recent_limit"`
	MaxTurns           int    `json:"max_turns"`
	ToolTimeoutSeconds int    `json:"tool_timeout_seconds"`
	SystemPromptPath   string `json:"system_prompt_path"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Add config paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Check for user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".finsight"))
	}

	// Set defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.path", "data/memory/chat_memory.db")
	viper.SetDefault("market_data.path", "data/vnstock_data.db")
	viper.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("groq.model", "llama3-70b-8192")
	viper.SetDefault("groq.summary_model", "llama-3.1-8b-instant")
	viper.SetDefault("serper.base_url", "https://google.serper.dev")
	viper.SetDefault("agent.max_iterations", 5)
	viper.SetDefault("agent.recent_limit", 4)
	viper.SetDefault("agent.max_turns", 6)
	viper.SetDefault("agent.tool_timeout_seconds", 30)
	viper.SetDefault("agent.system_prompt_path", "config/system_prompt.txt")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// Missing file is fine; defaults plus env cover it.
	}

	var cfg Config
	// Keys use the same names as the JSON config file.
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) { dc.TagName = "json" }); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("FINSIGHT_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("FINSIGHT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if path := os.Getenv("FINSIGHT_DB_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if path := os.Getenv("FINSIGHT_MARKET_DB_PATH"); path != "" {
		cfg.MarketData.Path = path
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		cfg.Groq.APIKey = key
	}
	if key := os.Getenv("SERPER_API_KEY"); key != "" {
		cfg.Serper.APIKey = key
	}
	if secret := os.Getenv("FINSIGHT_JWT_SECRET"); secret != "" {
		cfg.JWTSecret = secret
	}
}
