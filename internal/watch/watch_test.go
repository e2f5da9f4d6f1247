package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCallsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "response.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- File(ctx, path, 20*time.Millisecond, func() { changed <- struct{}{} })
	}()

	// Unrelated files in the same directory are ignored
	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o600)
		_ = os.WriteFile(path, []byte(`{"segments":[]}`), 0o600)
		select {
		case <-changed:
			return true
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestFileMissingDirectory(t *testing.T) {
	err := File(context.Background(), filepath.Join(t.TempDir(), "missing", "x.json"), 0, func() {})
	assert.ErrorContains(t, err, "watch directory")
}
