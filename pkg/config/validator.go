package config

import "fmt"

// validateConfig checks invariants the rest of the pipeline assumes hold,
// failing fast at boot rather than producing confusing runtime behavior.
func validateConfig(cfg *Config) error {
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return NewValidationError("api_port", fmt.Errorf("must be in (0, 65535], got %d", cfg.APIPort))
	}
	if cfg.StateDBPath == "" {
		return NewValidationError("state_db_path", fmt.Errorf("must not be empty"))
	}
	if cfg.CCI.Window <= 0 {
		return NewValidationError("cci.window", fmt.Errorf("must be positive, got %d", cfg.CCI.Window))
	}
	if err := validateUnitInterval("cci.weights.consistency", cfg.CCI.Weights.Consistency); err != nil {
		return err
	}
	if err := validateUnitInterval("cci.weights.stability", cfg.CCI.Weights.Stability); err != nil {
		return err
	}
	if err := validateUnitInterval("cci.weights.contradiction_rate", cfg.CCI.Weights.ContradictionRate); err != nil {
		return err
	}
	if err := validateUnitInterval("cci.weights.predictive_accuracy", cfg.CCI.Weights.PredictiveAccuracy); err != nil {
		return err
	}
	if cfg.Approvals.TTLSeconds <= 0 {
		return NewValidationError("approvals.ttl_seconds", fmt.Errorf("must be positive, got %d", cfg.Approvals.TTLSeconds))
	}
	if cfg.Approvals.SweepIntervalS <= 0 {
		return NewValidationError("approvals.sweep_interval_s", fmt.Errorf("must be positive, got %d", cfg.Approvals.SweepIntervalS))
	}
	if err := validateUnitInterval("assistant.value_floor", cfg.Assistant.ValueFloor); err != nil {
		return err
	}
	if err := validateUnitInterval("assistant.cci_floor", cfg.Assistant.CCIFloor); err != nil {
		return err
	}
	if err := validateUnitInterval("assistant.epsilon_start", cfg.Assistant.EpsilonStart); err != nil {
		return err
	}
	if err := validateUnitInterval("assistant.epsilon_min", cfg.Assistant.EpsilonMin); err != nil {
		return err
	}
	if cfg.Assistant.EpsilonDecay <= 0 || cfg.Assistant.EpsilonDecay > 1 {
		return NewValidationError("assistant.epsilon_decay", fmt.Errorf("must be in (0, 1], got %f", cfg.Assistant.EpsilonDecay))
	}
	return nil
}

func validateUnitInterval(field string, v float64) error {
	if v < 0 || v > 1 {
		return NewValidationError(field, fmt.Errorf("must be in [0,1], got %f", v))
	}
	return nil
}
