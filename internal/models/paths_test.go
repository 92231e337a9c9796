package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/glyph/internal/ocrerr"
)

func TestDirPriority(t *testing.T) {
	assert.Equal(t, "/explicit", Dir("/explicit"))

	t.Setenv(EnvModelsDir, "/from-env")
	assert.Equal(t, "/from-env", Dir(""))
	assert.Equal(t, "/explicit", Dir("/explicit"))

	t.Setenv(EnvModelsDir, "")
	assert.Equal(t, DefaultModelsDir, Dir(""))
}

func TestRequire(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DetectionModel)
	require.NoError(t, os.WriteFile(path, []byte("onnx"), 0o644))

	resolved, err := Require(dir, DetectionModel)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)

	_, err = Require(dir, RecognitionModel)
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindModelLoad))
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(dir, LayoutModel))
	require.NoError(t, os.WriteFile(filepath.Join(dir, LayoutModel), []byte("x"), 0o644))
	assert.True(t, Exists(dir, LayoutModel))
}

func TestList(t *testing.T) {
	infos := List()
	assert.NotEmpty(t, infos)
	names := make(map[string]bool)
	for _, info := range infos {
		names[info.Name] = true
		assert.NotEmpty(t, info.Filename)
	}
	assert.True(t, names["detection"])
	assert.True(t, names["table"])
}
