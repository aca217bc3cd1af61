package store

import (
	"context"
	"testing"
	"time"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/require"
)

func newTestStoreWithRetention(t *testing.T, historyBound int, transcriptRetention time.Duration) *Store {
	t.Helper()
	path := t.TempDir() + "/pce-test.db"
	s, err := Open(context.Background(), Config{
		Path:                path,
		HistoryBound:        historyBound,
		TranscriptRetention: transcriptRetention,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTrimHistoriesClampsOversizedRings(t *testing.T) {
	s := newTestStoreWithRetention(t, 2, time.Hour)
	ctx := context.Background()

	snapshot := models.StateSnapshot{}
	for i := 0; i < 5; i++ {
		snapshot = models.AppendBounded(snapshot, models.StateKeyEventHistory, testEvent(actionID(i), int64(i)), 1000)
	}
	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.SaveState(snapshot) }))

	n, err := s.TrimHistories(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Len(t, got.EventHistory(), 2)
}

func TestTrimHistoriesPrunesOldTranscriptRows(t *testing.T) {
	s := newTestStoreWithRetention(t, 50, time.Hour)
	ctx := context.Background()

	oldTs := time.Now().Add(-2 * time.Hour).UnixMilli()
	freshTs := time.Now().UnixMilli()

	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error {
		_, err := tx.AppendTranscript(models.TranscriptItem{Ts: oldTs, Kind: models.KindEventIngested, Payload: map[string]any{}})
		return err
	}))
	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error {
		_, err := tx.AppendTranscript(models.TranscriptItem{Ts: freshTs, Kind: models.KindEventIngested, Payload: map[string]any{}})
		return err
	}))

	n, err := s.TrimHistories(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	items, err := s.TranscriptSince(ctx, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, freshTs, items[0].Ts)
}

func TestTrimHistoriesNoopOnEmptyState(t *testing.T) {
	s := newTestStore(t)
	n, err := s.TrimHistories(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, n)
}
