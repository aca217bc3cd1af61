package config

// Config is the fully resolved, ready-to-use configuration for the
// Persistent Cognition Engine. It is returned by Initialize and is
// immutable after that point — nothing in the pipeline mutates it.
type Config struct {
	configDir string

	APIPort     int    `yaml:"api_port"`
	StateDBPath string `yaml:"state_db_path"`

	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	CCI        CCIConfig        `yaml:"cci"`
	Approvals  ApprovalsConfig  `yaml:"approvals"`
	Assistant  AssistantConfig  `yaml:"assistant"`
	Slack      SlackConfig      `yaml:"slack"`
}

// OpenRouterConfig configures the out-of-process LLM reply provider used by
// the assistant decision plugin (pkg/llmclient).
type OpenRouterConfig struct {
	APIKey      string `yaml:"api_key"`
	Model       string `yaml:"model"`
	BaseURL     string `yaml:"base_url"`
	TimeoutS    int    `yaml:"timeout_s"`
	HTTPReferer string `yaml:"http_referer"`
	XTitle      string `yaml:"x_title"`
}

// CCIConfig configures the coherence engine.
type CCIConfig struct {
	Window  int        `yaml:"window"`
	Weights CCIWeights `yaml:"weights"`
}

// CCIWeights is the four-component coherence aggregate weighting.
// spec.md §4.4 freezes these at 0.35/0.25/0.25/0.15 (documented there as
// authoritative). A YAML file may set these and they are validated, but
// the coherence engine always aggregates with pipeline.DefaultCCIWeights,
// so configured values do not change the CCI. There is no
// environment-variable override.
type CCIWeights struct {
	Consistency        float64 `yaml:"consistency"`
	Stability          float64 `yaml:"stability"`
	ContradictionRate  float64 `yaml:"contradiction_rate"`
	PredictiveAccuracy float64 `yaml:"predictive_accuracy"`
}

// ApprovalsConfig configures the approval gate's TTL sweeper.
type ApprovalsConfig struct {
	TTLSeconds     int `yaml:"ttl_seconds"`
	SweepIntervalS int `yaml:"sweep_interval_s"`
}

// AssistantConfig configures the assistant domain plugin's decision floors
// and epsilon-greedy bandit schedule (spec.md §4.5, §4.8).
type AssistantConfig struct {
	ValueFloor   float64 `yaml:"value_floor"`
	CCIFloor     float64 `yaml:"cci_floor"`
	EpsilonStart float64 `yaml:"epsilon_start"`
	EpsilonMin   float64 `yaml:"epsilon_min"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`
}

// SlackConfig configures the best-effort operator-notification side channel
// for sensitive pending approvals (SPEC_FULL.md §5, supplementing spec.md
// §4.6 which is silent on paging).
type SlackConfig struct {
	Enabled  bool   `yaml:"enabled"`
	TokenEnv string `yaml:"token_env"`
	Channel  string `yaml:"channel"`
}

// ConfigDir returns the directory the config file (if any) was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}
