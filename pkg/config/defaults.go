package config

// defaultConfig returns the built-in defaults applied before any YAML file
// or environment variable is consulted (spec.md §6 resolution order: env >
// file > default).
func defaultConfig() *Config {
	return &Config{
		APIPort:     8080,
		StateDBPath: "./data/pce.db",
		OpenRouter: OpenRouterConfig{
			Model:       "openrouter/auto",
			BaseURL:     "https://openrouter.ai/api/v1",
			TimeoutS:    12,
			HTTPReferer: "https://localhost",
			XTitle:      "persistent-cognition-engine",
		},
		CCI: CCIConfig{
			Window: 50,
			Weights: CCIWeights{
				Consistency:        0.35,
				Stability:          0.25,
				ContradictionRate:  0.25,
				PredictiveAccuracy: 0.15,
			},
		},
		Approvals: ApprovalsConfig{
			TTLSeconds:     24 * 60 * 60,
			SweepIntervalS: 60,
		},
		Assistant: AssistantConfig{
			ValueFloor:   0.35,
			CCIFloor:     0.40,
			EpsilonStart: 1.0,
			EpsilonMin:   0.05,
			EpsilonDecay: 0.9995,
		},
		Slack: SlackConfig{
			Enabled:  false,
			TokenEnv: "SLACK_BOT_TOKEN",
		},
	}
}
