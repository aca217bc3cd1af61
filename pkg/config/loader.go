package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// configFileName is the YAML file Initialize looks for in configDir.
const configFileName = "pce.yaml"

// Initialize loads, resolves, and validates configuration.
//
// Steps:
//  1. Start from built-in defaults.
//  2. Overlay pce.yaml, if present (missing file is not an error — the
//     service is usable on defaults alone).
//  3. Overlay explicit environment variables (highest precedence).
//  4. Validate the fully resolved configuration.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg := defaultConfig()
	cfg.configDir = configDir

	if err := overlayFile(configDir, cfg); err != nil {
		return nil, err
	}

	overlayEnv(cfg)

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	log.Info("Configuration initialized",
		"api_port", cfg.APIPort,
		"state_db_path", cfg.StateDBPath,
		"cci_window", cfg.CCI.Window)
	return cfg, nil
}

// overlayFile merges pce.yaml (if present) onto cfg in place.
func overlayFile(configDir string, cfg *Config) error {
	path := filepath.Join(configDir, configFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No pce.yaml found, using built-in defaults", "path", path)
			return nil
		}
		return NewLoadError(configFileName, err)
	}

	data = ExpandEnv(data)

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return NewLoadError(configFileName, fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	if err := mergeOverride(cfg, &fileCfg); err != nil {
		return NewLoadError(configFileName, err)
	}
	return nil
}

// overlayEnv applies explicit environment variable overrides, the highest
// precedence tier per spec.md §6.
func overlayEnv(cfg *Config) {
	if v, ok := envString("PCE_STATE_DB_PATH"); ok {
		cfg.StateDBPath = v
	}
	if v, ok := envInt("PCE_API_PORT"); ok {
		cfg.APIPort = v
	}

	if v, ok := envString("PCE_OPENROUTER_API_KEY"); ok {
		cfg.OpenRouter.APIKey = v
	}
	if v, ok := envString("PCE_OPENROUTER_MODEL"); ok {
		cfg.OpenRouter.Model = v
	}
	if v, ok := envString("PCE_OPENROUTER_BASE_URL"); ok {
		cfg.OpenRouter.BaseURL = v
	}
	if v, ok := envInt("PCE_OPENROUTER_TIMEOUT_S"); ok {
		cfg.OpenRouter.TimeoutS = v
	}
	if v, ok := envString("PCE_OPENROUTER_HTTP_REFERER"); ok {
		cfg.OpenRouter.HTTPReferer = v
	}
	if v, ok := envString("PCE_OPENROUTER_X_TITLE"); ok {
		cfg.OpenRouter.XTitle = v
	}

	if v, ok := envInt("PCE_CCI_WINDOW"); ok {
		cfg.CCI.Window = v
	}

	if v, ok := envInt("PCE_APPROVALS_TTL_SECONDS"); ok {
		cfg.Approvals.TTLSeconds = v
	}
	if v, ok := envInt("PCE_APPROVALS_SWEEP_INTERVAL_S"); ok {
		cfg.Approvals.SweepIntervalS = v
	}

	if v, ok := envFloat("PCE_ASSISTANT_VALUE_FLOOR"); ok {
		cfg.Assistant.ValueFloor = v
	}
	if v, ok := envFloat("PCE_ASSISTANT_CCI_FLOOR"); ok {
		cfg.Assistant.CCIFloor = v
	}
	if v, ok := envFloat("PCE_ASSISTANT_EPSILON_START"); ok {
		cfg.Assistant.EpsilonStart = v
	}
	if v, ok := envFloat("PCE_ASSISTANT_EPSILON_MIN"); ok {
		cfg.Assistant.EpsilonMin = v
	}
	if v, ok := envFloat("PCE_ASSISTANT_EPSILON_DECAY"); ok {
		cfg.Assistant.EpsilonDecay = v
	}
}

func envString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func envInt(key string) (int, bool) {
	raw, ok := envString(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer environment variable, ignoring", "key", key, "value", raw)
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	raw, ok := envString(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Invalid float environment variable, ignoring", "key", key, "value", raw)
		return 0, false
	}
	return f, true
}
