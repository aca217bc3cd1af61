// Package config loads, resolves, and validates PCE's configuration
// (spec.md §6 "Configuration (enumerated)"). Resolution order per field is
// environment variable > JSON/YAML config file > built-in default, mirroring
// the teacher's YAML-file-plus-env-expansion loader.
package config

// Stats summarizes the resolved configuration for the boot log line.
type Stats struct {
	APIPort       int
	CCIWindow     int
	ApprovalsTTLS int
}

// Stats returns a small snapshot of configuration for logging.
func (c *Config) Stats() Stats {
	return Stats{
		APIPort:       c.APIPort,
		CCIWindow:     c.CCI.Window,
		ApprovalsTTLS: c.Approvals.TTLSeconds,
	}
}
