package config

import "dario.cat/mergo"

// mergeOverride merges src into dst, with non-zero fields in src overriding
// dst. Used to layer a parsed YAML file on top of the built-in defaults —
// same shape as the teacher's queue-config merge in loader.go.
func mergeOverride(dst, src any) error {
	return mergo.Merge(dst, src, mergo.WithOverride)
}
