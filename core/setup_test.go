package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/deepdive/internal/backend"
	"github.com/huangsam/deepdive/internal/contract"
	"github.com/huangsam/deepdive/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range schema.RequiredConfigFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f.FileName), []byte("name: "+f.Field+"\n"), 0o600))
	}
	return dir
}

func TestLoadConfigFiles(t *testing.T) {
	ctx := context.Background()

	t.Run("reads every file in order", func(t *testing.T) {
		dir := writeConfigDir(t)
		// The .yml spelling is accepted too
		require.NoError(t, os.Rename(filepath.Join(dir, "metric_config.yaml"), filepath.Join(dir, "metric_config.yml")))

		uploads, err := LoadConfigFiles(ctx, dir)
		require.NoError(t, err)
		require.Len(t, uploads, len(schema.RequiredConfigFiles))
		for i, f := range schema.RequiredConfigFiles {
			assert.Equal(t, f.Field, uploads[i].Field)
			assert.Equal(t, f.FileName, uploads[i].FileName)
			assert.Equal(t, "name: "+f.Field+"\n", string(uploads[i].Content))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		dir := writeConfigDir(t)
		require.NoError(t, os.Remove(filepath.Join(dir, "system_definition.yaml")))
		_, err := LoadConfigFiles(ctx, dir)
		assert.ErrorContains(t, err, "missing config file system_definition.yaml")
	})

	t.Run("not a mapping", func(t *testing.T) {
		dir := writeConfigDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "deep_dive_config.yaml"), []byte("- a\n- b\n"), 0o600))
		_, err := LoadConfigFiles(ctx, dir)
		assert.ErrorContains(t, err, "deep_dive_config.yaml")
	})

	t.Run("empty file", func(t *testing.T) {
		dir := writeConfigDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "system_config.yaml"), nil, 0o600))
		_, err := LoadConfigFiles(ctx, dir)
		assert.ErrorContains(t, err, "non-empty YAML mapping")
	})
}

func TestExecuteSetup(t *testing.T) {
	ctx := context.Background()
	dir := writeConfigDir(t)

	client := &backend.MockAnalysisClient{}
	client.On("UploadConfig", ctx, mock.MatchedBy(func(files []contract.ConfigUpload) bool {
		return len(files) == 4 && files[0].Field == "metric_config"
	})).Return(nil)
	svc, store, _ := newServices(client, nil)

	require.NoError(t, ExecuteSetup(ctx, testConfig(), svc, dir))
	client.AssertExpectations(t)

	session, err := LoadSession(store)
	require.NoError(t, err)
	assert.True(t, session.ConfigDone)
	assert.Equal(t, "BSS", session.System)
}

func TestExecuteSetupUploadFails(t *testing.T) {
	ctx := context.Background()
	client := &backend.MockAnalysisClient{}
	client.On("UploadConfig", ctx, mock.Anything).Return(&backend.StatusError{StatusCode: 422, Body: `{"detail": "bad yaml"}`})
	svc, store, _ := newServices(client, nil)

	err := ExecuteSetup(ctx, testConfig(), svc, writeConfigDir(t))
	assert.ErrorContains(t, err, "Backend error: 422")

	session, err := LoadSession(store)
	require.NoError(t, err)
	assert.False(t, session.ConfigDone)
}
