package contract

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/deepdive/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignificanceLabel(t *testing.T) {
	assert.Equal(t, "Positive", SignificanceLabel(schema.SignificancePositive))
	assert.Equal(t, "Negative", SignificanceLabel(schema.SignificanceNegative))
	assert.Equal(t, "-", SignificanceLabel(schema.Significance("neutral")))
}

func TestColorizeKeepsText(t *testing.T) {
	assert.Contains(t, ColorizeBySignificance(schema.SignificancePositive, "Revenue"), "Revenue")
	assert.Equal(t, "Revenue", ColorizeBySignificance(schema.SignificanceNone, "Revenue"))
	for _, pct := range []string{"+1.00%", "-2.00%", "-", "+0.00%"} {
		assert.Contains(t, ColorizeChange(pct), pct)
	}
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestDBFilePaths(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	store := GetStoreDBFilePath()
	history := GetHistoryDBFilePath()
	assert.Contains(t, store, ".deepdive_results.db")
	assert.Contains(t, history, ".deepdive_history.db")
	assert.True(t, strings.HasPrefix(store, homeDir), "path %s should start with home dir %s", store, homeDir)
	assert.NotEqual(t, store, history)
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "Bid Pri...", TruncateText("Bid Price (HB Rendered Ad)", 10))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 3), "too narrow to truncate")
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	SetupLogging(&buf, zerolog.DebugLevel)
	t.Cleanup(func() { SetupLogging(os.Stderr, zerolog.WarnLevel) })

	log := ComponentLogger("backend")
	log.Info().Msg("hello")
	LogWarn("careful", errors.New("boom"))

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "backend")
	assert.Contains(t, out, "careful")
	assert.Contains(t, out, "boom")
}
