package simlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/shuttle/core/model"
	"github.com/kilianp07/shuttle/core/sim"
)

func sampleEntries() []sim.LogEntry {
	return []sim.LogEntry{
		{RunID: "r1", Seq: 1, Kind: sim.EventDepart, Route: "A1", BusID: 1, Clock: "07:15"},
		{RunID: "r1", Seq: 2, Kind: sim.EventBoard, Route: "A1", BusID: 1, Stop: "PGP", Count: 12, Onboard: 12},
		{RunID: "r1", Seq: 3, Kind: sim.EventMissed, Route: "A1", Clock: "07:24"},
		{RunID: "r2", Seq: 1, Kind: sim.EventDepart, Route: "D1", BusID: 2, Clock: "07:30"},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, sampleEntries()...))

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), all)

	run, err := store.Query(ctx, Query{RunID: "r1"})
	require.NoError(t, err)
	assert.Len(t, run, 3)

	bus, err := store.Query(ctx, Query{Route: "A1", BusID: 1})
	require.NoError(t, err)
	assert.Len(t, bus, 2)

	missed, err := store.Query(ctx, Query{Kind: sim.EventMissed})
	require.NoError(t, err)
	require.Len(t, missed, 1)
	assert.Equal(t, "07:24", missed[0].Clock)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "sim.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestJSONLStoreSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("not json\n"), 0o644))
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), sampleEntries()[0]))
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestSQLiteStore_PersistQuery(t *testing.T) {
	store, err := NewSQLiteStore("file:simlog_test.db?mode=memory&cache=shared")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	e := sim.LogEntry{RunID: "r", Kind: sim.EventBoard, Route: "A1", BusID: 1, Stop: "PGP"}
	for i := 0; i < 100; i++ {
		require.NoError(t, store.Append(context.Background(), e))
	}
	files, _ := filepath.Glob(path + "*")
	assert.NotEmpty(t, files)
	out, err := store.Query(context.Background(), Query{RunID: "r"})
	require.NoError(t, err)
	assert.Len(t, out, 100)
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	dir := t.TempDir()
	s, err = Open(Config{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &JSONLStore{}, s)

	s, err = Open(Config{Backend: "rotating", Path: filepath.Join(dir, "b.jsonl")})
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	_ = s.Close()

	_, err = Open(Config{Backend: "csv"})
	assert.ErrorIs(t, err, model.ErrConfiguration)
}
