package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertEventThenGetEvent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	event := testEvent("evt-1", 1000)
	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.InsertEvent(event) }))

	got, found, err := s.GetEvent(ctx, "evt-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, event.Type, got.Type)
	require.Equal(t, event.Source, got.Source)
}

func TestGetEventNotFound(t *testing.T) {
	s := newTestStore(t)
	_, found, err := s.GetEvent(context.Background(), "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestRePostingSameEnvelopeInsertsNewRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := testEvent("evt-a", 1000)
	second := testEvent("evt-b", 1001)

	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.InsertEvent(first) }))
	require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error { return tx.InsertEvent(second) }))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT count(*) FROM events`).Scan(&count))
	require.Equal(t, 2, count)
}
