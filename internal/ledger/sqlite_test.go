package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteLedger {
	t.Helper()

	l, err := NewSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSQLiteLedger_MarkAndCheck(t *testing.T) {
	t.Parallel()

	l := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	assert.False(t, l.IsProcessed("L-1"))
	require.NoError(t, l.MarkProcessed(ctx, "L-1"))
	assert.True(t, l.IsProcessed("L-1"))
	assert.Equal(t, 1, l.Count())
}

func TestSQLiteLedger_DuplicateAppendIsIdempotent(t *testing.T) {
	t.Parallel()

	l := newTestSQLite(t)
	ctx := context.Background()
	require.NoError(t, l.Load(ctx))

	require.NoError(t, l.MarkProcessed(ctx, "L-1"))
	require.NoError(t, l.MarkProcessed(ctx, "L-1"))

	require.NoError(t, l.Load(ctx))
	assert.Equal(t, 1, l.Count())
}

func TestSQLiteLedger_LoadSeesCommittedIDs(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	first, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, first.Load(ctx))
	require.NoError(t, first.MarkProcessed(ctx, "L-9"))
	require.NoError(t, first.Close())

	second, err := NewSQLite(path)
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Load(ctx))

	assert.True(t, second.IsProcessed("L-9"))
}
