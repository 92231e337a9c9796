package engine

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
)

func TestNewFromDirEmptyDirectory(t *testing.T) {
	// No model files at all: the engine builds, but processing fails with
	// the fatal missing-detector error.
	e, err := NewFromDir(t.TempDir(), DefaultConfig(), inference.SessionOptions{})
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.False(t, e.HasLayoutDetection())

	_, err = e.Process(image.NewNRGBA(image.Rect(0, 0, 100, 100)))
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindDetection))
}
