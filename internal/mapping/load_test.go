package mapping

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMappingFile(t *testing.T, doc *MappingDocument) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "mapping.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoad_AppliesDefaultsAndValidates(t *testing.T) {
	doc := sampleDoc()
	doc.Global.BatchSize = 0
	path := writeMappingFile(t, doc)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1000, loaded.Document.Global.BatchSize)
	assert.NotEmpty(t, loaded.ConfigHash)
}

func TestLoad_ConfigHashIgnoresEnvOverrides(t *testing.T) {
	doc := sampleDoc()
	path := writeMappingFile(t, doc)

	loadedBefore, err := Load(path)
	require.NoError(t, err)

	t.Setenv("PARALLEL_THREADS", "64")

	loadedAfter, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, loadedBefore.ConfigHash, loadedAfter.ConfigHash, "env overrides must not change a run's identity")
	assert.Equal(t, 64, loadedAfter.Document.Global.ParallelThreads)
}

func TestLoad_RejectsInvalidMapping(t *testing.T) {
	doc := sampleDoc()
	doc.Global.ConnectionString = ""
	path := writeMappingFile(t, doc)

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadWithProfile_OverlaysBeforeEnv(t *testing.T) {
	doc := sampleDoc()
	path := writeMappingFile(t, doc)

	profilePath := filepath.Join(t.TempDir(), "profile.toml")
	require.NoError(t, os.WriteFile(profilePath, []byte(`parallel_threads = 8`), 0o644))

	loaded, err := LoadWithProfile(path, profilePath)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Document.Global.ParallelThreads)

	t.Setenv("PARALLEL_THREADS", "16")

	loaded, err = LoadWithProfile(path, profilePath)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.Document.Global.ParallelThreads, "environment overrides are applied after the profile")
}
