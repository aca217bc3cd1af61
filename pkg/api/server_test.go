package api

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sbrunomello/pce-engine/pkg/events"
	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/pipeline"
	"github.com/sbrunomello/pce-engine/pkg/plugins"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// testRoboticsDecider is a minimal os.robotics Decider, mirroring
// pkg/pipeline's own test double: it answers purchase.request.v1 with a
// "purchase" plan (which the Decision Engine's approval-gate trigger
// then gates) and every other event with a non-gated acquire_committed.
type testRoboticsDecider struct{}

func (testRoboticsDecider) Decide(state models.StateSnapshot, valueScore float64, cci models.CCISnapshot, event models.Event) models.ActionPlan {
	if event.Type == "purchase.request.v1" {
		cost, _ := event.Payload["projected_cost"].(float64)
		return models.ActionPlan{
			ActionType:     "purchase",
			Domain:         "os.robotics",
			ExpectedImpact: 0.5,
			Fields:         map[string]any{"projected_cost": cost},
		}
	}
	return models.ActionPlan{ActionType: "acquire_committed", Domain: "os.robotics", ExpectedImpact: 0.5}
}

// newTestServer builds a Server over a real temp-file store and pipeline,
// following pkg/pipeline's own newTestPipeline helper.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{Path: filepath.Join(t.TempDir(), "pce.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	registry := plugins.NewRegistry()
	registry.Register(plugins.Domain{Name: "os.robotics", Decider: testRoboticsDecider{}})

	schemas := pipeline.NewSchemaRegistry()
	for _, eventType := range []string{
		"config.robotics.v1",
		"purchase.request.v1",
		"purchase.completed",
		"purchase.rejected",
	} {
		schemas.Register(eventType, pipeline.RequireDomain)
	}

	pipe := pipeline.New(st, registry, schemas, nil, pipeline.Config{})
	connManager := events.NewConnectionManager(events.NewStoreCatchupAdapter(st), 0)

	return NewServer(nil, st, pipe, connManager)
}
