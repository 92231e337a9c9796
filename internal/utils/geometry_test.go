package utils

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBoxNormalizesOrdering(t *testing.T) {
	b := NewBox(10, 20, 2, 4)
	assert.Equal(t, 2.0, b.MinX)
	assert.Equal(t, 4.0, b.MinY)
	assert.Equal(t, 10.0, b.MaxX)
	assert.Equal(t, 20.0, b.MaxY)
	assert.Equal(t, 8.0, b.Width())
	assert.Equal(t, 16.0, b.Height())
}

func TestBoxIoU(t *testing.T) {
	a := NewBox(0, 0, 10, 10)
	b := NewBox(5, 5, 15, 15)
	// intersection 5x5=25, union 100+100-25=175
	assert.InDelta(t, 25.0/175.0, a.IoU(b), 1e-9)
	assert.InDelta(t, a.IoU(b), b.IoU(a), 1e-9)

	c := NewBox(20, 20, 30, 30)
	assert.Equal(t, 0.0, a.IoU(c))
	assert.InDelta(t, 1.0, a.IoU(a), 1e-9)
}

func TestBoxClip(t *testing.T) {
	b := NewBox(-5, -5, 120, 60).Clip(100, 50)
	assert.Equal(t, Box{MinX: 0, MinY: 0, MaxX: 100, MaxY: 50}, b)
}

func TestBoxToRectClamps(t *testing.T) {
	bounds := image.Rect(0, 0, 50, 50)
	r := NewBox(-3.2, 10.7, 60.1, 20.2).ToRect(bounds)
	assert.Equal(t, image.Rect(0, 10, 50, 21), r)
}

func TestQuadGeometry(t *testing.T) {
	q := QuadFromBox(NewBox(10, 20, 40, 30))
	c := q.Center()
	assert.Equal(t, Point{X: 25, Y: 25}, c)
	assert.InDelta(t, 30.0, q.Width(), 1e-9)
	assert.InDelta(t, 10.0, q.Height(), 1e-9)

	bb := q.Bounding()
	assert.Equal(t, NewBox(10, 20, 40, 30), bb)
}

func TestQuadScaleAndClip(t *testing.T) {
	q := QuadFromBox(NewBox(10, 10, 20, 20)).Scale(2, 3)
	assert.Equal(t, Point{X: 20, Y: 30}, q[0])
	assert.Equal(t, Point{X: 40, Y: 60}, q[2])

	clipped := q.Clip(30, 40)
	assert.Equal(t, Point{X: 30, Y: 40}, clipped[2])
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("scan.PNG"))
	assert.True(t, IsSupportedImage("page.jpeg"))
	assert.False(t, IsSupportedImage("invoice.pdf"))
	assert.False(t, IsSupportedImage("noext"))
}
