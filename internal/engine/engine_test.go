package engine

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/glyph/internal/detector"
	"github.com/fakturo/glyph/internal/inference/mock"
	"github.com/fakturo/glyph/internal/layout"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/orientation"
	"github.com/fakturo/glyph/internal/recognizer"
	"github.com/fakturo/glyph/internal/utils"
)

func pageImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 200, 100))
}

// detBackend yields two text regions stacked vertically.
func detBackend() *mock.Backend {
	out := mock.ProbabilityMap(200, 100, 0.0, 0.95,
		mock.Rect{X1: 10, Y1: 10, X2: 100, Y2: 25},
		mock.Rect{X1: 10, Y1: 60, X2: 120, Y2: 75},
	)
	return mock.New([]string{"x"}, []string{"sigmoid_0.tmp_0"}).Returning(out)
}

// recBackend decodes a fixed word for every region. Dictionary: 1=a 2=b 3=c.
func recBackend(classes ...int) *mock.Backend {
	return mock.New([]string{"x"}, []string{"softmax_0.tmp_0"}).
		Returning(mock.CTCLogits(4, 10, 0, classes...))
}

func recDict() recognizer.Dictionary {
	return recognizer.Dictionary{' ', 'a', 'b', 'c'}
}

func detectorWithTightBoxes() *detector.Detector {
	cfg := detector.DefaultConfig()
	cfg.UnclipRatio = 1.0
	return detector.New(detBackend(), cfg)
}

func TestProcessNoDetectorIsFatal(t *testing.T) {
	e := NewBuilder().Build()
	_, err := e.Process(pageImage())
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindDetection))
}

func TestProcessDetectOnly(t *testing.T) {
	e := NewBuilder().WithDetector(detectorWithTightBoxes()).Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 2)
	for _, b := range res.Boxes {
		assert.Empty(t, b.Text)
		assert.Greater(t, b.DetectionScore, float32(0.9))
		assert.Zero(t, b.RecognitionScore)
	}
	assert.Equal(t, 200, res.ImageWidth)
	assert.Equal(t, 100, res.ImageHeight)
}

func TestProcessWithRecognition(t *testing.T) {
	rec := recognizer.New(recBackend(1, 2), recDict(), recognizer.DefaultConfig())
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithRecognizer(rec).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 2)
	assert.Equal(t, "ab", res.Boxes[0].Text)
	assert.Equal(t, "ab\nab", res.Text)
}

// clsBackend scores the two orientation classes (upright, 180).
func clsBackend(upright, flipped float32) *orientation.AngleClassifier {
	backend := mock.New([]string{"x"}, []string{"save_infer_model/scale_0.tmp_1"}).
		Returning(mock.ClassScores(upright, flipped))
	return orientation.New(backend, orientation.DefaultConfig())
}

func TestProcessRecordsAppliedRotation(t *testing.T) {
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithClassifier(clsBackend(-5.0, 5.0)).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 2)
	for _, b := range res.Boxes {
		assert.Equal(t, 180, b.Angle)
	}
}

func TestProcessLowConfidenceRotationNotRecorded(t *testing.T) {
	// The 180 class barely wins but stays under the rotation threshold, so
	// the crop is left alone and the box must not claim a rotation.
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithClassifier(clsBackend(0.0, 0.1)).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 2)
	for _, b := range res.Boxes {
		assert.Equal(t, 0, b.Angle)
	}
}

func TestProcessTextInvariant(t *testing.T) {
	rec := recognizer.New(recBackend(1), recDict(), recognizer.DefaultConfig())
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithRecognizer(rec).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)

	joined := ""
	for i, b := range res.Boxes {
		if i > 0 {
			joined += "\n"
		}
		joined += b.Text
	}
	assert.Equal(t, joined, res.Text)

	// Sorting again changes nothing.
	before := res.Text
	res.SortByReadingOrder()
	assert.Equal(t, before, res.Text)
}

func TestProcessRecognitionDisabledKeepsEmptyText(t *testing.T) {
	// Recognition disabled: boxes survive the threshold untouched, with
	// empty text but populated detection scores.
	rec := recognizer.New(recBackend(1), recDict(), recognizer.DefaultConfig())
	cfg := DefaultConfig()
	cfg.EnableRecognition = false
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithRecognizer(rec).
		WithConfig(cfg).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 2)
	for _, b := range res.Boxes {
		assert.Empty(t, b.Text)
		assert.Greater(t, b.DetectionScore, float32(0.9))
	}
}

func TestProcessDetectionDisabledUsesWholeImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableDetection = false
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithConfig(cfg).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 1)

	box := res.Boxes[0].Box.Bounding()
	assert.InDelta(t, 0, box.MinX, 1e-6)
	assert.InDelta(t, 0, box.MinY, 1e-6)
	assert.InDelta(t, 200, box.MaxX, 1e-6)
	assert.InDelta(t, 100, box.MaxY, 1e-6)
	assert.InDelta(t, 1.0, res.Boxes[0].DetectionScore, 1e-6)
}

func TestProcessThresholdFiltersWeakRecognition(t *testing.T) {
	// Near-uniform logits give every decoded character a tiny confidence,
	// far below the 0.5 threshold.
	weak := mock.New([]string{"x"}, []string{"softmax_0.tmp_0"}).
		Returning(mock.CTCLogits(4, 0.01, 0, 1))
	rec := recognizer.New(weak, recDict(), recognizer.DefaultConfig())
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithRecognizer(rec).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	assert.Empty(t, res.Boxes)
}

func TestProcessRegionErrorAborts(t *testing.T) {
	failing := mock.New([]string{"x"}, []string{"softmax_0.tmp_0"}).
		Failing(errors.New("session lost"))
	rec := recognizer.New(failing, recDict(), recognizer.DefaultConfig())
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithRecognizer(rec).
		Build()

	_, err := e.Process(pageImage())
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindRecognition))
}

func TestProcessLayoutAttached(t *testing.T) {
	layoutBackend := mock.New([]string{"image", "scale_factor"}, []string{"multiclass_nms3_0.tmp_0"}).
		Returning(mock.LayoutDetections(false,
			mock.LayoutRow{Class: 3, Score: 0.9, X1: 10, Y1: 100, X2: 700, Y2: 500},
			mock.LayoutRow{Class: 0, Score: 0.8, X1: 10, Y1: 10, X2: 700, Y2: 80},
			mock.LayoutRow{Class: 4, Score: 0.7, X1: 10, Y1: 520, X2: 300, Y2: 600},
		))
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithLayoutDetector(layout.New(layoutBackend, layout.DefaultConfig())).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	require.NotNil(t, res.Layout)
	assert.Len(t, res.Layout.Tables, 1)
	assert.Len(t, res.Layout.TextRegions, 1)
	assert.Len(t, res.Layout.Figures, 1)
	assert.Equal(t, "table", res.Layout.Tables[0].Type)
}

func TestProcessLayoutFailureDegrades(t *testing.T) {
	layoutBackend := mock.New([]string{"image", "scale_factor"}, []string{"out"}).
		Failing(errors.New("layout model crashed"))
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithLayoutDetector(layout.New(layoutBackend, layout.DefaultConfig())).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	assert.Nil(t, res.Layout)
	assert.Len(t, res.Boxes, 2)
}

func TestProcessEmptyPage(t *testing.T) {
	empty := mock.New([]string{"x"}, []string{"sigmoid_0.tmp_0"}).
		Returning(mock.ProbabilityMap(200, 100, 0.0, 0.0))
	e := NewBuilder().
		WithDetector(detector.New(empty, detector.DefaultConfig())).
		Build()

	res, err := e.Process(pageImage())
	require.NoError(t, err)
	assert.Empty(t, res.Boxes)
	assert.Empty(t, res.Text)
	assert.Equal(t, 200, res.ImageWidth)
}

func TestProcessBatch(t *testing.T) {
	det := mock.New([]string{"x"}, []string{"sigmoid_0.tmp_0"}).
		Enqueue(mock.ProbabilityMap(200, 100, 0.0, 0.95, mock.Rect{X1: 10, Y1: 10, X2: 100, Y2: 25})).
		Enqueue(mock.ProbabilityMap(200, 100, 0.0, 0.0))
	e := NewBuilder().
		WithDetector(detector.New(det, detector.DefaultConfig())).
		Build()

	results, err := e.ProcessBatch([]image.Image{pageImage(), pageImage()})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Len(t, results[0].Boxes, 1)
	assert.Empty(t, results[1].Boxes)
}

func TestExtractText(t *testing.T) {
	rec := recognizer.New(recBackend(3, 1), recDict(), recognizer.DefaultConfig())
	e := NewBuilder().
		WithDetector(detectorWithTightBoxes()).
		WithRecognizer(rec).
		Build()

	text, err := e.ExtractText(pageImage())
	require.NoError(t, err)
	assert.Equal(t, "ca\nca", text)
}

func TestSortByReadingOrder(t *testing.T) {
	res := &OcrResult{Boxes: []TextBox{
		quadBox(120, 12, "right"),
		quadBox(10, 15, "left"),
		quadBox(10, 60, "below"),
	}}
	res.SortByReadingOrder()

	assert.Equal(t, "left", res.Boxes[0].Text)
	assert.Equal(t, "right", res.Boxes[1].Text)
	assert.Equal(t, "below", res.Boxes[2].Text)
	assert.Equal(t, "left\nright\nbelow", res.Text)
}

func TestProcessNilImage(t *testing.T) {
	e := NewBuilder().WithDetector(detectorWithTightBoxes()).Build()
	_, err := e.Process(nil)
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindInvalidImage))
}

func quadBox(x, y float64, text string) TextBox {
	return TextBox{
		Box:  utils.QuadFromBox(utils.NewBox(x, y, x+80, y+15)),
		Text: text,
	}
}
