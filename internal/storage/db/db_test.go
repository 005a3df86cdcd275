package db_test

import (
	"path/filepath"
	"testing"
	"time"

	"kpm/internal/storage/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func TestNew_RunsMigrations(t *testing.T) {
	database := newTestDB(t)

	var count int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM operations").Scan(&count))
	assert.Zero(t, count)

	var version int
	require.NoError(t, database.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestNew_ReopenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpm.db")

	first, err := db.New(path)
	require.NoError(t, err)
	require.NoError(t, first.RecordOperation(db.NewOperation(db.KindBackup, "main", "")))
	require.NoError(t, first.Close())

	second, err := db.New(path)
	require.NoError(t, err)
	defer second.Close()

	ops, err := second.ListOperations("", 0)
	require.NoError(t, err)
	assert.Len(t, ops, 1)
}

func TestRecordOperation_RoundTrip(t *testing.T) {
	database := newTestDB(t)

	op := db.NewOperation(db.KindApply, "main", "career")
	op.Applied = 2
	op.Total = 4
	op.Missing = []string{"KerbalEngineer"}
	op.Failed = []string{"MechJeb2"}
	op.FinishedAt = op.StartedAt.Add(1500 * time.Millisecond)
	require.NoError(t, database.RecordOperation(op))

	got, err := database.GetOperation(op.ID)
	require.NoError(t, err)
	assert.Equal(t, db.KindApply, got.Kind)
	assert.Equal(t, "main", got.Instance)
	assert.Equal(t, "career", got.Profile)
	assert.Equal(t, 2, got.Applied)
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, []string{"KerbalEngineer"}, got.Missing)
	assert.Equal(t, []string{"MechJeb2"}, got.Failed)
	assert.Equal(t, 1500*time.Millisecond, got.Duration())
	assert.True(t, op.StartedAt.Equal(got.StartedAt))
	assert.False(t, got.Succeeded())
}

func TestRecordOperation_StampsDefaults(t *testing.T) {
	database := newTestDB(t)

	op := &db.Operation{Kind: db.KindCleanup, Instance: "*"}
	require.NoError(t, database.RecordOperation(op))

	assert.NotEmpty(t, op.ID)
	assert.False(t, op.StartedAt.IsZero())
	assert.False(t, op.FinishedAt.IsZero())

	got, err := database.GetOperation(op.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Missing)
	assert.True(t, got.Succeeded())
}

func TestListOperations_FilterAndOrder(t *testing.T) {
	database := newTestDB(t)

	base := time.Now()
	for i, inst := range []string{"main", "other", "main", "main"} {
		op := db.NewOperation(db.KindApply, inst, "p")
		op.StartedAt = base.Add(time.Duration(i) * time.Second)
		op.FinishedAt = op.StartedAt
		op.Applied = i
		require.NoError(t, database.RecordOperation(op))
	}

	all, err := database.ListOperations("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := database.ListOperations("main", 2)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, 3, mine[0].Applied)
	assert.Equal(t, 2, mine[1].Applied)
}

func TestGetOperation_NotFound(t *testing.T) {
	database := newTestDB(t)

	_, err := database.GetOperation("missing")
	assert.Error(t, err)
}
