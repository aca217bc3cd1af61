package plugins

import "encoding/json"

// decodeInto round-trips raw (a map[string]any/[]any produced by a
// prior json.Unmarshal into `any`, or a concrete value already set this
// transaction) into dst. Malformed or absent input leaves dst at its
// zero value rather than erroring, matching the rest of the pipeline's
// total-function merge rules (pkg/models.decodeInto's sibling, kept
// package-local since plugins has no need of models' StateSnapshot
// receiver methods for this).
func decodeInto(raw any, dst any) {
	if raw == nil {
		return
	}
	if b, err := json.Marshal(raw); err == nil {
		_ = json.Unmarshal(b, dst)
	}
}

func floatField(m map[string]any, key string) float64 {
	v, _ := m[key].(float64)
	return v
}

func stringFieldOf(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}
