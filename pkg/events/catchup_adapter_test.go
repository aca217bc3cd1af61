package events

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// mockTranscriptQuerier implements transcriptQuerier for testing the adapter.
type mockTranscriptQuerier struct {
	items []models.TranscriptItem
	err   error
}

func (m *mockTranscriptQuerier) TranscriptSince(_ context.Context, _ int64) ([]models.TranscriptItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func TestStoreCatchupAdapter_GetCatchupEvents(t *testing.T) {
	items := []models.TranscriptItem{
		{Cursor: 1, Kind: models.KindEventIngested},
		{Cursor: 2, Kind: models.KindStateUpdated},
		{Cursor: 3, Kind: models.KindApprovalCreated},
	}
	adapter := NewStoreCatchupAdapter(&mockTranscriptQuerier{items: items})

	got, err := adapter.GetCatchupEvents(context.Background(), TranscriptChannel, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, items, got)
}

func TestStoreCatchupAdapter_RespectsLimit(t *testing.T) {
	items := []models.TranscriptItem{
		{Cursor: 1}, {Cursor: 2}, {Cursor: 3}, {Cursor: 4}, {Cursor: 5},
	}
	adapter := NewStoreCatchupAdapter(&mockTranscriptQuerier{items: items})

	got, err := adapter.GetCatchupEvents(context.Background(), TranscriptChannel, 0, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestStoreCatchupAdapter_PropagatesError(t *testing.T) {
	adapter := NewStoreCatchupAdapter(&mockTranscriptQuerier{err: fmt.Errorf("store unreachable")})

	_, err := adapter.GetCatchupEvents(context.Background(), TranscriptChannel, 0, 10)
	assert.Error(t, err)
}
