package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfq/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRunsRoundTripNewestFirst(t *testing.T) {
	db := openTestDB(t)

	_, err := db.InsertRun(internal.RunRow{
		TraceID: "t1", InputName: "a.xml", InputHash: "h1", Units: 3, Groups: 2,
		OutputPath: "/out/a.xlsx", Status: RunOK,
	}, map[string]float64{"totalMs": 12})
	require.NoError(t, err)
	_, err = db.InsertRun(internal.RunRow{
		TraceID: "t2", InputName: "b.xml", InputHash: "h2", Status: RunFailed, Error: "no units",
	}, nil)
	require.NoError(t, err)

	runs, err := db.ListRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "t2", runs[0].TraceID)
	assert.Equal(t, RunFailed, runs[0].Status)
	assert.Equal(t, "no units", runs[0].Error)
	assert.Equal(t, "", runs[0].OutputPath)

	assert.Equal(t, "t1", runs[1].TraceID)
	assert.Equal(t, 3, runs[1].Units)
	assert.Equal(t, 2, runs[1].Groups)
	assert.NotEmpty(t, runs[1].CreatedAt)

	limited, err := db.ListRuns(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMetadata(t *testing.T) {
	db := openTestDB(t)

	missing, err := db.GetMetadata("template")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, db.SetMetadata("template", "v1"))
	require.NoError(t, db.SetMetadata("template", "v2"))

	got, err := db.GetMetadata("template")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "v2", *got)
}

func TestHasRun(t *testing.T) {
	db := openTestDB(t)

	seen, err := db.HasRun("h1")
	require.NoError(t, err)
	assert.False(t, seen)

	_, err = db.InsertRun(internal.RunRow{TraceID: "t1", InputName: "a.xml", InputHash: "h1", Status: RunFailed}, nil)
	require.NoError(t, err)

	seen, err = db.HasRun("h1")
	require.NoError(t, err)
	assert.True(t, seen, "failed runs count as handled")
}
