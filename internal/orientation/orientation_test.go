package orientation

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/glyph/internal/inference/mock"
	"github.com/fakturo/glyph/internal/ocrerr"
)

func lineImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 120, 32))
}

func TestClassifyUpright(t *testing.T) {
	backend := mock.New([]string{"x"}, []string{"save_infer_model/scale_0.tmp_1"}).
		Returning(mock.ClassScores(5.0, -5.0))
	c := New(backend, DefaultConfig())

	cls, err := c.Classify(lineImage())
	require.NoError(t, err)
	assert.Equal(t, 0, cls.Angle)
	assert.Greater(t, cls.Confidence, float32(0.99))
}

func TestClassifyRotated(t *testing.T) {
	backend := mock.New([]string{"x"}, []string{"save_infer_model/scale_0.tmp_1"}).
		Returning(mock.ClassScores(-5.0, 5.0))
	c := New(backend, DefaultConfig())

	cls, err := c.Classify(lineImage())
	require.NoError(t, err)
	assert.Equal(t, 180, cls.Angle)
	assert.Greater(t, cls.Confidence, float32(0.99))
}

func TestClassifyNilImage(t *testing.T) {
	c := New(mock.New(nil, nil), DefaultConfig())
	_, err := c.Classify(nil)
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindInvalidImage))
}

func TestClassifyInferenceError(t *testing.T) {
	backend := mock.New([]string{"x"}, []string{"out"}).Failing(errors.New("boom"))
	c := New(backend, DefaultConfig())
	_, err := c.Classify(lineImage())
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindRecognition))
}

func TestAutoRotateFlipsConfident180(t *testing.T) {
	backend := mock.New([]string{"x"}, []string{"out"}).
		Returning(mock.ClassScores(-5.0, 5.0))
	c := New(backend, DefaultConfig())

	src := image.NewNRGBA(image.Rect(0, 0, 120, 32))
	rotated, cls, err := c.AutoRotate(src)
	require.NoError(t, err)
	assert.Equal(t, 180, cls.Angle)
	assert.True(t, cls.Rotated)
	assert.NotSame(t, src, rotated)
}

func TestAutoRotateKeepsLowConfidence(t *testing.T) {
	// Near-even logits: the 180 class barely wins but stays well under the
	// confidence threshold, so the image must pass through untouched.
	backend := mock.New([]string{"x"}, []string{"out"}).
		Returning(mock.ClassScores(0.0, 0.1))
	c := New(backend, DefaultConfig())

	src := lineImage()
	out, cls, err := c.AutoRotate(src)
	require.NoError(t, err)
	assert.Equal(t, 180, cls.Angle)
	assert.False(t, cls.Rotated)
	assert.Less(t, cls.Confidence, float32(0.9))
	assert.Same(t, src, out)
}

func TestAutoRotateKeepsUpright(t *testing.T) {
	backend := mock.New([]string{"x"}, []string{"out"}).
		Returning(mock.ClassScores(5.0, -5.0))
	c := New(backend, DefaultConfig())

	src := lineImage()
	out, cls, err := c.AutoRotate(src)
	require.NoError(t, err)
	assert.Equal(t, 0, cls.Angle)
	assert.Same(t, src, out)
}

func TestClassifyBadOutput(t *testing.T) {
	backend := mock.New([]string{"x"}, []string{"out"}).
		Returning(mock.ClassScores(0.5))
	c := New(backend, DefaultConfig())
	_, err := c.Classify(lineImage())
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindRecognition))
}
