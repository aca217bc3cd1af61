package store

import (
	"context"
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestLatestCCIColdStartDefault(t *testing.T) {
	s := newTestStore(t)
	snapshot, err := s.LatestCCI(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0.5, snapshot.CCI)
	require.True(t, snapshot.Components.Unknown)
}

func TestInsertCCISnapshotThenLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	snapshot := models.CCISnapshot{
		Ts:  1000,
		CCI: 0.72,
		Components: models.CCIComponents{
			Consistency:        0.8,
			Stability:          0.7,
			ContradictionRate:  0.1,
			PredictiveAccuracy: 0.6,
		},
	}
	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.InsertCCISnapshot(snapshot) }))

	got, err := s.LatestCCI(ctx)
	require.NoError(t, err)
	require.Equal(t, 0.72, got.CCI)
	require.False(t, got.Components.Unknown)
}

func TestCCIHistoryOrderedOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, ts := range []int64{300, 100, 200} {
		snapshot := models.CCISnapshot{Ts: ts, CCI: 0.5}
		require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.InsertCCISnapshot(snapshot) }))
	}

	history, err := s.CCIHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, int64(100), history[0].Ts)
	require.Equal(t, int64(300), history[2].Ts)
}
