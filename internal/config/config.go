// Package config loads server and game settings from an optional YAML file
// and the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/vakif/internal/rules"
)

type Config struct {
	Server  Server  `yaml:"server" json:"server"`
	Game    Game    `yaml:"game" json:"game"`
	Balance Balance `yaml:"balance" json:"balance"`
}

type Server struct {
	Port        int      `yaml:"port" json:"port"`
	DBPath      string   `yaml:"db_path" json:"db_path"`
	AdminKey    string   `yaml:"admin_key" json:"-"`
	LogLevel    string   `yaml:"log_level" json:"log_level"`
	CORSOrigins []string `yaml:"cors_origins" json:"cors_origins"`

	// SessionTokens maps bearer tokens to user names.
	SessionTokens map[string]string `yaml:"session_tokens" json:"-"`
	RatePerSecond float64           `yaml:"rate_per_second" json:"rate_per_second"`
	RateBurst     int               `yaml:"rate_burst" json:"rate_burst"`

	// TrustedProxies may name the client in X-Forwarded-For.
	TrustedProxies []string `yaml:"trusted_proxies" json:"trusted_proxies"`
}

type Game struct {
	Difficulty   string `yaml:"difficulty" json:"difficulty"`
	Seed         int64  `yaml:"seed" json:"seed"` // 0 picks a random seed
	RandomOrgKey string `yaml:"random_org_key" json:"-"`
	SaveSlot     string `yaml:"save_slot" json:"save_slot"`
}

// Default returns a complete configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Port:          8080,
			DBPath:        "data/vakif.db",
			LogLevel:      "info",
			SessionTokens: map[string]string{},
			RatePerSecond: 2,
			RateBurst:     10,
		},
		Game: Game{
			Difficulty: string(rules.Medium),
			SaveSlot:   "autosave",
		},
		Balance: DefaultBalance(),
	}
}

// Load reads a YAML file over the defaults. An empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Server.SessionTokens == nil {
		cfg.Server.SessionTokens = map[string]string{}
	}
	return cfg, nil
}

// Difficulty returns the parsed game difficulty.
func (c *Config) Difficulty() rules.Difficulty {
	d, err := rules.ParseDifficulty(c.Game.Difficulty)
	if err != nil {
		return rules.Medium
	}
	return d
}

// Validate rejects settings the game cannot run with.
func (c *Config) Validate() error {
	if _, err := rules.ParseDifficulty(c.Game.Difficulty); err != nil {
		return err
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Balance.MaintenanceFactor <= 0 {
		return fmt.Errorf("maintenance_factor must be positive, got %v", c.Balance.MaintenanceFactor)
	}
	if lo, hi := c.Balance.IdeasPerTurn[0], c.Balance.IdeasPerTurn[1]; lo < 0 || hi < lo {
		return fmt.Errorf("invalid ideas_per_turn range [%d, %d]", lo, hi)
	}
	if err := c.Balance.NeedsRetention.Validate(); err != nil {
		return err
	}
	return nil
}
