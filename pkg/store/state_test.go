package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadStateEmptyWhenUnset(t *testing.T) {
	s := newTestStore(t)
	snapshot, err := s.LoadState(context.Background())
	require.NoError(t, err)
	require.Empty(t, snapshot)
}

func TestSaveStateThenLoadRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	want := testSnapshot()
	err := s.WriteTx(ctx, func(tx *Tx) error {
		return tx.SaveState(want)
	})
	require.NoError(t, err)

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Equal(t, want["assistant"], got["assistant"])
}

func TestSaveStateUpsertsSingleRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testSnapshot()
	second := testSnapshot()
	second["robotics"] = map[string]any{"phase": "deployed"}

	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.SaveState(first) }))
	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.SaveState(second) }))

	var rowCount int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM state`).Scan(&rowCount))
	require.Equal(t, 1, rowCount)

	got, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Contains(t, got, "robotics")
}

func TestTxLoadStateSeesUncommittedPriorWriteInSameTx(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteTx(ctx, func(tx *Tx) error {
		if err := tx.SaveState(testSnapshot()); err != nil {
			return err
		}
		got, err := tx.LoadState()
		if err != nil {
			return err
		}
		require.Contains(t, got, "assistant")
		return nil
	})
	require.NoError(t, err)
}
