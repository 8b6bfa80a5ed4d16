package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overrides cfg from environment variables.
// Unset or malformed numeric values leave the current setting.
func FromEnv(cfg *Config) {
	// Balance preset first so individual overrides below still apply.
	switch os.Getenv("VAKIF_BALANCE") {
	case "casual":
		cfg.Balance = Casual()
	case "hard":
		cfg.Balance = Hard()
	}

	if val := getEnvInt("VAKIF_PORT"); val > 0 {
		cfg.Server.Port = val
	}
	if val := os.Getenv("VAKIF_DB"); val != "" {
		cfg.Server.DBPath = val
	}
	if val := os.Getenv("VAKIF_ADMIN_KEY"); val != "" {
		cfg.Server.AdminKey = val
	}
	if val := os.Getenv("VAKIF_LOG_LEVEL"); val != "" {
		cfg.Server.LogLevel = val
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		cfg.Server.CORSOrigins = splitList(val)
	}
	if val := os.Getenv("VAKIF_TRUSTED_PROXIES"); val != "" {
		cfg.Server.TrustedProxies = splitList(val)
	}
	if val := os.Getenv("VAKIF_SESSION_TOKENS"); val != "" {
		cfg.Server.SessionTokens = parseTokens(val)
	}

	if val := os.Getenv("DIFFICULTY"); val != "" {
		cfg.Game.Difficulty = val
	}
	if val := getEnvInt64("VAKIF_SEED"); val != 0 {
		cfg.Game.Seed = val
	}
	if val := os.Getenv("RANDOM_ORG_API_KEY"); val != "" {
		cfg.Game.RandomOrgKey = val
	}

	if val := os.Getenv("VAKIF_NEEDS_RETENTION"); val != "" {
		policy, age, _ := strings.Cut(val, ":")
		cfg.Balance.NeedsRetention.Policy = policy
		if n, err := strconv.Atoi(age); err == nil {
			cfg.Balance.NeedsRetention.MaxAge = n
		}
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvInt64(key string) int64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return num
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTokens reads "user:token,user:token" into a token→user map.
func parseTokens(s string) map[string]string {
	out := map[string]string{}
	for _, pair := range splitList(s) {
		user, token, ok := strings.Cut(pair, ":")
		if !ok || user == "" || token == "" {
			continue
		}
		out[token] = user
	}
	return out
}
