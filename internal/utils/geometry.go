package utils

import (
	"image"
	"math"
)

// Point is a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box is an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from two corners, normalizing ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Contains reports whether the point lies inside the box (inclusive).
func (b Box) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Clip clamps the box into [0,width]x[0,height].
func (b Box) Clip(width, height float64) Box {
	return Box{
		MinX: clampFloat(b.MinX, 0, width),
		MinY: clampFloat(b.MinY, 0, height),
		MaxX: clampFloat(b.MaxX, 0, width),
		MaxY: clampFloat(b.MaxY, 0, height),
	}
}

// IoU computes intersection-over-union with another box.
func (b Box) IoU(other Box) float64 {
	x1 := math.Max(b.MinX, other.MinX)
	y1 := math.Max(b.MinY, other.MinY)
	x2 := math.Min(b.MaxX, other.MaxX)
	y2 := math.Min(b.MaxY, other.MaxY)
	if x2 < x1 || y2 < y1 {
		return 0
	}
	inter := (x2 - x1) * (y2 - y1)
	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// ToRect converts the box to an image.Rectangle clamped to bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

// Quad is a quadrilateral stored corner-wise: TL, TR, BR, BL.
type Quad [4]Point

// QuadFromBox builds an axis-aligned quadrilateral from a Box.
func QuadFromBox(b Box) Quad {
	return Quad{
		{X: b.MinX, Y: b.MinY},
		{X: b.MaxX, Y: b.MinY},
		{X: b.MaxX, Y: b.MaxY},
		{X: b.MinX, Y: b.MaxY},
	}
}

// Bounding returns the axis-aligned bounding box of the quad's corners.
func (q Quad) Bounding() Box {
	minX, minY := q[0].X, q[0].Y
	maxX, maxY := q[0].X, q[0].Y
	for _, p := range q[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Box{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// Center returns the centroid of the four corners.
func (q Quad) Center() Point {
	return Point{
		X: (q[0].X + q[1].X + q[2].X + q[3].X) / 4,
		Y: (q[0].Y + q[1].Y + q[2].Y + q[3].Y) / 4,
	}
}

// Width returns the Euclidean length of the top edge.
func (q Quad) Width() float64 {
	return math.Hypot(q[1].X-q[0].X, q[1].Y-q[0].Y)
}

// Height returns the Euclidean length of the left edge.
func (q Quad) Height() float64 {
	return math.Hypot(q[3].X-q[0].X, q[3].Y-q[0].Y)
}

// Scale returns a copy with every corner scaled by sx, sy.
func (q Quad) Scale(sx, sy float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Clip clamps every corner into [0,width]x[0,height].
func (q Quad) Clip(width, height float64) Quad {
	var out Quad
	for i, p := range q {
		out[i] = Point{
			X: clampFloat(p.X, 0, width),
			Y: clampFloat(p.Y, 0, height),
		}
	}
	return out
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
