package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore opens a fresh, migrated SQLite database under the test's
// temp dir. Pure-Go modernc.org/sqlite needs no container, unlike the
// teacher's Postgres tests.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pce-test.db")

	s, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenAppliesMigrations(t *testing.T) {
	s := newTestStore(t)

	var count int
	err := s.db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name IN
		('state','events','actions','cci','approvals','transcript')`).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 6, count)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pce-test.db")

	s1, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	defer s2.Close()
}

func TestHealthReportsHealthy(t *testing.T) {
	s := newTestStore(t)
	status := s.Health(context.Background())
	require.Equal(t, "healthy", status.Status)
}

func TestWriteTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WriteTx(ctx, func(tx *Tx) error {
		if err := tx.SaveState(testSnapshot()); err != nil {
			return err
		}
		return errForcedFailure
	})
	require.ErrorIs(t, err, errForcedFailure)

	snapshot, loadErr := s.LoadState(ctx)
	require.NoError(t, loadErr)
	require.Empty(t, snapshot)
}
