package layout

import (
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/glyph/internal/inference/mock"
	"github.com/fakturo/glyph/internal/ocrerr"
)

func pageImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 800, 608))
}

func layoutBackend(out ...mock.LayoutRow) *mock.Backend {
	return mock.New([]string{"image", "scale_factor"}, []string{"multiclass_nms3_0.tmp_0"}).
		Returning(mock.LayoutDetections(false, out...))
}

func TestTypeMapping(t *testing.T) {
	assert.Equal(t, TypeText, fromPubLayNetClass(0))
	assert.Equal(t, TypeTitle, fromPubLayNetClass(1))
	assert.Equal(t, TypeList, fromPubLayNetClass(2))
	assert.Equal(t, TypeTable, fromPubLayNetClass(3))
	assert.Equal(t, TypeFigure, fromPubLayNetClass(4))
	assert.Equal(t, TypeUnknown, fromPubLayNetClass(7))

	// CDLA folds captions, footers, references and equations into text.
	assert.Equal(t, TypeText, fromCDLAClass(2))
	assert.Equal(t, TypeText, fromCDLAClass(4))
	assert.Equal(t, TypeTitle, fromCDLAClass(5))
	assert.Equal(t, TypeText, fromCDLAClass(6))
	assert.Equal(t, TypeText, fromCDLAClass(8))
	assert.Equal(t, TypeTable, fromCDLAClass(3))
	assert.Equal(t, TypeFigure, fromCDLAClass(1))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, TypeTable.IsTable())
	assert.False(t, TypeText.IsTable())
	assert.True(t, TypeText.IsText())
	assert.True(t, TypeTitle.IsText())
	assert.True(t, TypeList.IsText())
	assert.False(t, TypeFigure.IsText())
}

func TestDetectBasic(t *testing.T) {
	// Page matches the network input size, so scale factors are 1.0 and
	// network coordinates pass through unchanged.
	backend := layoutBackend(
		mock.LayoutRow{Class: 0, Score: 0.9, X1: 10, Y1: 10, X2: 400, Y2: 100},
		mock.LayoutRow{Class: 3, Score: 0.8, X1: 10, Y1: 200, X2: 700, Y2: 500},
	)
	d := New(backend, DefaultConfig())

	res, err := d.Detect(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Regions, 2)
	assert.Len(t, res.Tables(), 1)
	assert.Len(t, res.TextRegions(), 1)
	assert.Equal(t, 800, res.ImageWidth)
	assert.Equal(t, 608, res.ImageHeight)
}

func TestDetectBatchedOutputShape(t *testing.T) {
	backend := mock.New([]string{"image", "scale_factor"}, []string{"multiclass_nms3_0.tmp_0"}).
		Returning(mock.LayoutDetections(true,
			mock.LayoutRow{Class: 1, Score: 0.95, X1: 50, Y1: 20, X2: 600, Y2: 60},
		))
	d := New(backend, DefaultConfig())

	res, err := d.Detect(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	assert.Equal(t, TypeTitle, res.Regions[0].Type)
}

func TestDetectFiltersLowConfidence(t *testing.T) {
	backend := layoutBackend(
		mock.LayoutRow{Class: 0, Score: 0.9, X1: 10, Y1: 10, X2: 400, Y2: 100},
		mock.LayoutRow{Class: 0, Score: 0.3, X1: 10, Y1: 300, X2: 400, Y2: 400},
	)
	d := New(backend, DefaultConfig())

	res, err := d.Detect(pageImage())
	require.NoError(t, err)
	assert.Len(t, res.Regions, 1)
}

func TestDetectScalesBackToOriginal(t *testing.T) {
	// A 1600x1216 page is resized by 0.5 on both axes; network coordinates
	// must come back doubled.
	backend := layoutBackend(
		mock.LayoutRow{Class: 0, Score: 0.9, X1: 100, Y1: 100, X2: 400, Y2: 300},
	)
	d := New(backend, DefaultConfig())

	res, err := d.Detect(image.NewNRGBA(image.Rect(0, 0, 1600, 1216)))
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)

	reg := res.Regions[0]
	assert.InDelta(t, 200, reg.X1, 0.5)
	assert.InDelta(t, 200, reg.Y1, 0.5)
	assert.InDelta(t, 800, reg.X2, 0.5)
	assert.InDelta(t, 600, reg.Y2, 0.5)
}

func TestDetectSendsScaleFactor(t *testing.T) {
	backend := layoutBackend(
		mock.LayoutRow{Class: 0, Score: 0.9, X1: 0, Y1: 0, X2: 100, Y2: 100},
	)
	d := New(backend, DefaultConfig())

	_, err := d.Detect(image.NewNRGBA(image.Rect(0, 0, 1600, 1216)))
	require.NoError(t, err)

	inputs := backend.LastInputs()
	require.Len(t, inputs, 2)
	assert.Equal(t, "scale_factor", inputs[1].Name)
	data, err := inputs[1].Tensor.Float32s()
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.InDelta(t, 0.5, data[0], 1e-6) // scaleY first
	assert.InDelta(t, 0.5, data[1], 1e-6)
}

func TestNMSSuppressesSameType(t *testing.T) {
	// Two heavily overlapping text regions: only the more confident stays.
	backend := layoutBackend(
		mock.LayoutRow{Class: 0, Score: 0.7, X1: 10, Y1: 10, X2: 400, Y2: 100},
		mock.LayoutRow{Class: 0, Score: 0.9, X1: 12, Y1: 12, X2: 402, Y2: 102},
	)
	d := New(backend, DefaultConfig())

	res, err := d.Detect(pageImage())
	require.NoError(t, err)
	require.Len(t, res.Regions, 1)
	assert.InDelta(t, 0.9, res.Regions[0].Confidence, 1e-6)
}

func TestNMSKeepsDifferentTypes(t *testing.T) {
	// Same overlap, different types: both survive.
	backend := layoutBackend(
		mock.LayoutRow{Class: 0, Score: 0.7, X1: 10, Y1: 10, X2: 400, Y2: 100},
		mock.LayoutRow{Class: 3, Score: 0.9, X1: 12, Y1: 12, X2: 402, Y2: 102},
	)
	d := New(backend, DefaultConfig())

	res, err := d.Detect(pageImage())
	require.NoError(t, err)
	assert.Len(t, res.Regions, 2)
}

func TestSortedByReadingOrder(t *testing.T) {
	res := &Result{Regions: []Region{
		{Type: TypeText, X1: 400, Y1: 10, X2: 700, Y2: 60},
		{Type: TypeText, X1: 10, Y1: 30, X2: 300, Y2: 80},
		{Type: TypeText, X1: 10, Y1: 200, X2: 300, Y2: 260},
	}}

	sorted := res.SortedByReadingOrder()
	require.Len(t, sorted, 3)
	// First two share the top band; left one comes first.
	assert.InDelta(t, 10, sorted[0].X1, 1e-6)
	assert.InDelta(t, 400, sorted[1].X1, 1e-6)
	assert.InDelta(t, 200, sorted[2].Y1, 1e-6)
}

func TestRegionGeometry(t *testing.T) {
	r := Region{X1: 10, Y1: 20, X2: 110, Y2: 70}
	assert.InDelta(t, 100, r.Width(), 1e-6)
	assert.InDelta(t, 50, r.Height(), 1e-6)
	assert.InDelta(t, 5000, r.Area(), 1e-3)
	assert.True(t, r.ContainsPoint(60, 45))
	assert.False(t, r.ContainsPoint(5, 45))

	same := Region{X1: 10, Y1: 20, X2: 110, Y2: 70}
	assert.InDelta(t, 1.0, r.IoU(same), 1e-6)

	disjoint := Region{X1: 200, Y1: 20, X2: 300, Y2: 70}
	assert.Zero(t, r.IoU(disjoint))
	assert.False(t, r.Overlaps(disjoint))
}

func TestDetectNilImage(t *testing.T) {
	d := New(mock.New(nil, nil), DefaultConfig())
	_, err := d.Detect(nil)
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindInvalidImage))
}

func TestDetectInferenceError(t *testing.T) {
	backend := mock.New([]string{"image", "scale_factor"}, []string{"out"}).
		Failing(errors.New("boom"))
	d := New(backend, DefaultConfig())
	_, err := d.Detect(pageImage())
	require.Error(t, err)
	assert.True(t, ocrerr.IsKind(err, ocrerr.KindDetection))
}

func TestDetectEmptyOutput(t *testing.T) {
	backend := mock.New([]string{"image", "scale_factor"}, []string{"multiclass_nms3_0.tmp_0"}).
		Returning(mock.LayoutDetections(false))
	d := New(backend, DefaultConfig())

	res, err := d.Detect(pageImage())
	require.NoError(t, err)
	assert.Empty(t, res.Regions)
}
