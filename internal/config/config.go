package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const configFileName = "config.toml"

type OpenAIConfig struct {
	Endpoint string `toml:"endpoint"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
}

// Config is built once at startup and handed to constructors explicitly.
// Leaf code never reads process environment on its own.
type Config struct {
	ListenHost  string       `toml:"listen_host"`
	ListenPort  int          `toml:"listen_port"`
	LogLevel    string       `toml:"log_level"`
	DBPath      string       `toml:"db_path"`
	InternalKey string       `toml:"internal_key"`
	AuthToken   string       `toml:"auth_token"`
	OpenAI      OpenAIConfig `toml:"openai"`
}

// Load reads the TOML config file if present, then applies CODEFORGE_*
// environment overrides and defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	var cfg Config
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath()
	}
	if b, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}
	applyEnv(&cfg)
	return normalize(cfg), nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CODEFORGE_LISTEN_HOST"); v != "" {
		cfg.ListenHost = v
	}
	if v := os.Getenv("CODEFORGE_LISTEN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ListenPort = n
		}
	}
	if v := os.Getenv("CODEFORGE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CODEFORGE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CODEFORGE_INTERNAL_KEY"); v != "" {
		cfg.InternalKey = v
	}
	if v := os.Getenv("CODEFORGE_AUTH_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := os.Getenv("OPENAI_ENDPOINT"); v != "" {
		cfg.OpenAI.Endpoint = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
}

func normalize(cfg Config) Config {
	if strings.TrimSpace(cfg.ListenHost) == "" {
		cfg.ListenHost = "127.0.0.1"
	}
	if cfg.ListenPort <= 0 {
		cfg.ListenPort = 4810
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join(configDir(), "codeforge.db")
	}
	if strings.TrimSpace(cfg.OpenAI.Model) == "" {
		cfg.OpenAI.Model = "gpt-5-mini"
	}
	cfg.InternalKey = strings.TrimSpace(cfg.InternalKey)
	cfg.AuthToken = strings.TrimSpace(cfg.AuthToken)
	return cfg
}

func defaultConfigPath() string {
	return filepath.Join(configDir(), configFileName)
}

func configDir() string {
	if v := os.Getenv("CODEFORGE_CONFIG_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".codeforge")
}
