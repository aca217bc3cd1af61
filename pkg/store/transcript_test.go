package store

import (
	"context"
	"testing"

	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/stretchr/testify/require"
)

func TestAppendTranscriptAssignsMonotonicCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var cursors []int64
	for i := 0; i < 3; i++ {
		item := models.TranscriptItem{
			Ts:      int64(100 + i),
			Kind:    models.KindEventIngested,
			Payload: map[string]any{"n": i},
		}
		err := s.WriteTx(ctx, func(tx *Tx) error {
			appended, err := tx.AppendTranscript(item)
			if err != nil {
				return err
			}
			cursors = append(cursors, appended.Cursor)
			return nil
		})
		require.NoError(t, err)
	}

	require.Equal(t, []int64{1, 2, 3}, cursors)
}

func TestTranscriptSinceReturnsOnlyLaterItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		item := models.TranscriptItem{Ts: int64(100 + i), Kind: models.KindStateUpdated, Payload: map[string]any{}}
		require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error {
			_, err := tx.AppendTranscript(item)
			return err
		}))
	}

	items, err := s.TranscriptSince(ctx, 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, int64(4), items[0].Cursor)
	require.Equal(t, int64(5), items[1].Cursor)
}

func TestLatestCursorZeroWhenEmpty(t *testing.T) {
	s := newTestStore(t)
	cursor, err := s.LatestCursor(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), cursor)
}

func TestLatestCursorMatchesLastAppended(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 3; i++ {
		item := models.TranscriptItem{Ts: int64(i), Kind: models.KindAgentMessage, Payload: map[string]any{}}
		require.NoError(t, s.WriteTx(ctx, func(tx *Tx) error {
			appended, err := tx.AppendTranscript(item)
			last = appended.Cursor
			return err
		}))
	}

	cursor, err := s.LatestCursor(ctx)
	require.NoError(t, err)
	require.Equal(t, last, cursor)
}
