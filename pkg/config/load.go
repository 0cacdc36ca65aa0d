package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads configuration from the environment, loading the first env file
// found among envFilePath beforehand. Missing files are not an error; the
// system environment always wins over file values.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()

	loaded := false
	for _, path := range envFilePath {
		found, err := findEnvFile(path)
		if err != nil {
			logger.Debug("environment file not found", "path", path)
			continue
		}
		if err := godotenv.Load(found); err != nil {
			logger.Warn("failed to load environment file", "path", found, "error", err)
			continue
		}
		logger.Info("environment loaded from file", "path", found)
		loaded = true
		break
	}
	if !loaded {
		logger.Debug("no env file loaded, using system environment only")
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	logger.Info("config loaded",
		"env", cfg.Env,
		"server_port", cfg.Server.Port,
		"exchange_api_base", cfg.Exchange.APIBase,
		"ars_provider", cfg.Ars.Provider,
		"forex_cache_ttl", cfg.Forex.CacheTTL,
		"ars_cache_ttl", cfg.Ars.CacheTTL,
		"scan_max_iterations", cfg.Scan.MaxIterations,
		"redis_backed", cfg.Redis.URL != "",
	)
	return &cfg, nil
}

// findEnvFile walks from the working directory toward the filesystem root
// looking for filename, so tests running in package directories still pick up
// the repository's env file.
func findEnvFile(filename string) (string, error) {
	if filename == "" {
		filename = ".env"
	}
	curr, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(curr, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(curr)
		if parent == curr {
			break
		}
		curr = parent
	}
	return "", os.ErrNotExist
}
