package iocache

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/deepdive/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteResultStore(t *testing.T) *ResultStoreImpl {
	t.Helper()
	store, err := NewResultStore(slotsTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store.(*ResultStoreImpl)
}

func TestSQLiteResultStore(t *testing.T) {
	store := newSQLiteResultStore(t)

	_, ok, err := store.Get(schema.SlotDeepDiveResults)
	require.NoError(t, err)
	assert.False(t, ok, "empty store should miss")

	require.NoError(t, store.Put(schema.SlotDeepDiveResults, []byte(`{"segments":[]}`)))
	got, ok, err := store.Get(schema.SlotDeepDiveResults)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"segments":[]}`, string(got))

	// Upsert replaces
	require.NoError(t, store.Put(schema.SlotDeepDiveResults, []byte(`{"segments":null}`)))
	got, _, _ = store.Get(schema.SlotDeepDiveResults)
	assert.Equal(t, `{"segments":null}`, string(got))

	require.NoError(t, store.Clear(schema.SlotDeepDiveResults))
	_, ok, err = store.Get(schema.SlotDeepDiveResults)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, store.Clear("never-written"), "clearing an absent key is fine")
}

func TestSQLiteResultStoreStatus(t *testing.T) {
	store := newSQLiteResultStore(t)
	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Put(schema.SlotSession, []byte(`{}`)))
	store.now = func() time.Time { return fixed.Add(time.Hour) }
	require.NoError(t, store.Put(schema.SlotAnalysisResults, []byte(`{}`)))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.Equal(t, []string{schema.SlotAnalysisResults, schema.SlotSession}, status.Keys)
	assert.Equal(t, fixed.Unix(), status.OldestEntryTime.Unix())
	assert.Equal(t, fixed.Add(time.Hour).Unix(), status.LastEntryTime.Unix())
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestNoneResultStore(t *testing.T) {
	store, err := NewResultStore(slotsTable, schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Put(schema.SlotSession, []byte("x")))
	_, ok, err := store.Get(schema.SlotSession)
	require.NoError(t, err)
	assert.False(t, ok, "none backend always misses")
	assert.NoError(t, store.Clear(schema.SlotSession))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestMemoryStore(t *testing.T) {
	store, err := NewResultStore(slotsTable, schema.MemoryBackend, "")
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	value := []byte("abc")
	require.NoError(t, store.Put("k", value))
	value[0] = 'z'

	got, ok, err := store.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", string(got), "stored value is copied")

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "memory", status.Backend)
	assert.Equal(t, []string{"k"}, status.Keys)
	assert.Equal(t, int64(3), status.TableSizeBytes)

	require.NoError(t, store.Clear("k"))
	_, ok, _ = store.Get("k")
	assert.False(t, ok)
}

func TestMemoryStoreConcurrency(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Put(schema.SlotSession, []byte{byte(i)})
			_, _, _ = store.Get(schema.SlotSession)
		}(i)
	}
	wg.Wait()

	_, ok, _ := store.Get(schema.SlotSession)
	assert.True(t, ok)
}

func TestNewResultStoreErrors(t *testing.T) {
	_, err := NewResultStore("bad-name", schema.SQLiteBackend, "")
	assert.ErrorContains(t, err, "invalid table name")

	_, err = NewResultStore(slotsTable, schema.DatabaseBackend("redis"), "")
	assert.ErrorContains(t, err, "unsupported database backend")
}

func TestValidateTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		wantErr   bool
	}{
		{"valid simple name", "deepdive_slots", false},
		{"valid name starting with underscore", "_slots", false},
		{"valid mixed case", "Slots_123", false},
		{"empty name", "", true},
		{"starts with number", "1slots", true},
		{"contains dash", "deepdive-slots", true},
		{"sql injection attempt", "x'; DROP TABLE users; --", true},
		{"contains dot", "db.slots", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTableName(tt.tableName)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, `"deepdive_slots"`, quoteTableName(slotsTable, schema.SQLiteBackend))
	assert.Equal(t, `"deepdive_slots"`, quoteTableName(slotsTable, schema.PostgreSQLBackend))
	assert.Equal(t, "`deepdive_slots`", quoteTableName(slotsTable, schema.MySQLBackend))
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "?", placeholder(schema.SQLiteBackend, 3))
	assert.Equal(t, "?", placeholder(schema.MySQLBackend, 1))
	assert.Equal(t, "$3", placeholder(schema.PostgreSQLBackend, 3))
}

func TestGetUpsertQuery(t *testing.T) {
	tests := []struct {
		backend schema.DatabaseBackend
		want    string
	}{
		{schema.SQLiteBackend, "INSERT OR REPLACE"},
		{schema.MySQLBackend, "ON DUPLICATE KEY UPDATE"},
		{schema.PostgreSQLBackend, "ON CONFLICT (slot_key)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			store := &ResultStoreImpl{tableName: slotsTable, backend: tt.backend}
			assert.Contains(t, store.getUpsertQuery(), tt.want)
		})
	}
}

func TestGetCreateSlotsQuery(t *testing.T) {
	assert.Contains(t, getCreateSlotsQuery(slotsTable, schema.SQLiteBackend), "slot_value BLOB")
	assert.Contains(t, getCreateSlotsQuery(slotsTable, schema.MySQLBackend), "slot_value LONGBLOB")
	assert.Contains(t, getCreateSlotsQuery(slotsTable, schema.PostgreSQLBackend), "slot_value BYTEA")
}

func TestTimeScanner(t *testing.T) {
	ref := time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC)

	var ts timeScanner
	require.NoError(t, ts.Scan(ref.Format(time.RFC3339Nano)))
	assert.True(t, ts.Valid)
	assert.True(t, ref.Equal(ts.Time))

	require.NoError(t, ts.Scan([]byte("2025-01-02 03:04:05.6")))
	assert.True(t, ref.Equal(ts.Time))

	require.NoError(t, ts.Scan(ref))
	assert.True(t, ref.Equal(ts.Time))

	require.NoError(t, ts.Scan(nil))
	assert.False(t, ts.Valid)

	assert.Error(t, ts.Scan("yesterday"))
	assert.Error(t, ts.Scan(42))
}
