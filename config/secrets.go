package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// secretTargets lists the docker secrets consulted for values the environment
// left empty. CI never reads secret files.
func secretTargets(cfg *Config) map[string]*string {
	return map[string]*string{
		"db_password":      &cfg.Database.Password,
		"jwt_secret":       &cfg.Auth.JWTSecret,
		"redis_password":   &cfg.Redis.Password,
		"deepseek_api_key": &cfg.LLM.APIKey,
	}
}

func applySecrets(cfg *Config) error {
	if cfg.Environment != CI {
		for name, target := range secretTargets(cfg) {
			if *target == "" {
				*target = readSecret(name)
			}
		}
	}

	if cfg.Auth.JWTSecret == "" && (cfg.Environment == Development || cfg.Environment == Test) {
		cfg.Auth.JWTSecret = defaultJWTSecret
	}

	if cfg.LLM.APIKey == "" && cfg.LLM.APIKeyFile != "" {
		data, err := os.ReadFile(cfg.LLM.APIKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read API key file: %w", err)
		}
		cfg.LLM.APIKey = strings.TrimSpace(string(data))
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("API key file is empty")
		}
	}
	return nil
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	if data, err := os.ReadFile(filepath.Join(secretsDir, name)); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
