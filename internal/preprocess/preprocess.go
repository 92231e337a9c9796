// Package preprocess converts decoded page images into the tensors the OCR
// models consume, and maps coordinates between network space and the original
// pixel space.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/mempool"
	"github.com/fakturo/glyph/internal/utils"
)

// Per-channel normalization constants. Detection, layout, and table models
// use ImageNet statistics; recognition and classification use symmetric 0.5.
var (
	imageNetMean = [3]float32{0.485, 0.456, 0.406}
	imageNetStd  = [3]float32{0.229, 0.224, 0.225}
	halfMean     = [3]float32{0.5, 0.5, 0.5}
	halfStd      = [3]float32{0.5, 0.5, 0.5}
)

// detStride is the detector's stride requirement: padded input dimensions
// must be multiples of it.
const detStride = 32

// Preprocessor prepares images for the pipeline models.
type Preprocessor struct {
	maxSize         int // hard cap on the longer input side
	detTargetSize   int // detection network target for the longer side
	recTargetHeight int // recognition input height
	recMaxWidth     int // recognition input width cap
	clsWidth        int // classification input width
	clsHeight       int // classification input height
}

// New returns a preprocessor with the pipeline defaults.
func New() *Preprocessor {
	return &Preprocessor{
		maxSize:         2048,
		detTargetSize:   960,
		recTargetHeight: 48,
		recMaxWidth:     320,
		clsWidth:        192,
		clsHeight:       48,
	}
}

// WithMaxSize caps the longer side of detection inputs.
func (p *Preprocessor) WithMaxSize(size int) *Preprocessor {
	if size > 0 {
		p.maxSize = size
	}
	return p
}

// WithDetTargetSize overrides the detection network target size.
func (p *Preprocessor) WithDetTargetSize(size int) *Preprocessor {
	if size > 0 {
		p.detTargetSize = size
	}
	return p
}

// DetectionInput is a detection-ready tensor with the scale factors needed to
// map network-space coordinates back onto the original image.
type DetectionInput struct {
	Tensor         inference.Tensor
	ScaleX         float64 // resized width / original width
	ScaleY         float64 // resized height / original height
	NetworkWidth   int     // padded width fed to the model
	NetworkHeight  int     // padded height fed to the model
	OriginalWidth  int
	OriginalHeight int
}

// Release returns the tensor staging buffer to the pool. Call it after the
// inference run has consumed the input.
func (d *DetectionInput) Release() {
	if data, err := d.Tensor.Float32s(); err == nil {
		mempool.Put(data)
	}
}

// ForDetection resizes the image so its longer side fits the detection target
// (never upscaling), pads width and height up to the next multiple of 32, and
// normalizes with ImageNet statistics into a [1,3,H,W] tensor.
func (p *Preprocessor) ForDetection(img image.Image) (*DetectionInput, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW < 1 || origH < 1 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", origW, origH)
	}

	target := p.detTargetSize
	if target > p.maxSize {
		target = p.maxSize
	}
	newW, newH := fitLongerSide(origW, origH, target)

	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)

	padW := nextMultiple(newW, detStride)
	padH := nextMultiple(newH, detStride)

	data := mempool.Get(3 * padW * padH)
	for i := range data {
		data[i] = 0
	}
	writeCHW(data, resized, padW, padH, imageNetMean, imageNetStd)

	tensor, err := inference.NewFloat32(data, 1, 3, int64(padH), int64(padW))
	if err != nil {
		mempool.Put(data)
		return nil, fmt.Errorf("failed to build detection tensor: %w", err)
	}

	return &DetectionInput{
		Tensor:         tensor,
		ScaleX:         float64(newW) / float64(origW),
		ScaleY:         float64(newH) / float64(origH),
		NetworkWidth:   padW,
		NetworkHeight:  padH,
		OriginalWidth:  origW,
		OriginalHeight: origH,
	}, nil
}

// ForRecognition resizes a cropped text region to the recognition height,
// scaling width proportionally up to the cap, right-padding the rest, and
// normalizes to [-1,1].
func (p *Preprocessor) ForRecognition(img image.Image) (inference.Tensor, error) {
	if img == nil {
		return inference.Tensor{}, errors.New("input image is nil")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return inference.Tensor{}, fmt.Errorf("invalid region dimensions %dx%d", w, h)
	}

	aspect := float64(w) / float64(h)
	targetW := int(float64(p.recTargetHeight) * aspect)
	if targetW > p.recMaxWidth {
		targetW = p.recMaxWidth
	}
	if targetW < 1 {
		targetW = 1
	}

	resized := imaging.Resize(img, targetW, p.recTargetHeight, imaging.Lanczos)

	data := make([]float32, 3*p.recTargetHeight*p.recMaxWidth)
	writeCHW(data, resized, p.recMaxWidth, p.recTargetHeight, halfMean, halfStd)

	return inference.NewFloat32(data, 1, 3, int64(p.recTargetHeight), int64(p.recMaxWidth))
}

// ForClassification resizes to the fixed 192x48 classifier input with [-1,1]
// normalization.
func (p *Preprocessor) ForClassification(img image.Image) (inference.Tensor, error) {
	if img == nil {
		return inference.Tensor{}, errors.New("input image is nil")
	}
	resized := imaging.Resize(img, p.clsWidth, p.clsHeight, imaging.Lanczos)

	data := make([]float32, 3*p.clsHeight*p.clsWidth)
	writeCHW(data, resized, p.clsWidth, p.clsHeight, halfMean, halfStd)

	return inference.NewFloat32(data, 1, 3, int64(p.clsHeight), int64(p.clsWidth))
}

// CropRegion crops the axis-aligned rectangle spanning the quad's corners,
// clamped into image bounds. The result is never smaller than 1x1, even for
// degenerate quads.
func (p *Preprocessor) CropRegion(img image.Image, quad utils.Quad) (image.Image, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	bounds := img.Bounds()
	rect := quad.Bounding().ToRect(bounds)
	if rect.Dx() < 1 {
		rect.Max.X = min(rect.Min.X+1, bounds.Max.X)
		rect.Min.X = rect.Max.X - 1
	}
	if rect.Dy() < 1 {
		rect.Max.Y = min(rect.Min.Y+1, bounds.Max.Y)
		rect.Min.Y = rect.Max.Y - 1
	}
	return imaging.Crop(img, rect), nil
}

// Letterbox is the result of an aspect-preserving resize onto a white-padded
// square, as the table recognizer expects.
type Letterbox struct {
	Image   image.Image
	Scale   float64 // resized / original, both axes
	OffsetX int     // left padding in letterbox pixels
	OffsetY int     // top padding in letterbox pixels
}

// MapBack converts a letterbox-space coordinate to original image space.
func (l Letterbox) MapBack(x, y float64) (float64, float64) {
	if l.Scale == 0 {
		return 0, 0
	}
	return (x - float64(l.OffsetX)) / l.Scale, (y - float64(l.OffsetY)) / l.Scale
}

// LetterboxSquare resizes img to fit a size x size square while preserving
// aspect ratio, centered on a white background.
func LetterboxSquare(img image.Image, size int) (Letterbox, error) {
	if img == nil {
		return Letterbox{}, errors.New("input image is nil")
	}
	if size < 1 {
		return Letterbox{}, fmt.Errorf("invalid letterbox size %d", size)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return Letterbox{}, fmt.Errorf("invalid image dimensions %dx%d", w, h)
	}

	scale := min(float64(size)/float64(w), float64(size)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	resized := imaging.Resize(img, newW, newH, imaging.Lanczos)
	background := imaging.New(size, size, color.White)
	offX := (size - newW) / 2
	offY := (size - newH) / 2
	composed := imaging.Paste(background, resized, image.Pt(offX, offY))

	return Letterbox{
		Image:   composed,
		Scale:   scale,
		OffsetX: offX,
		OffsetY: offY,
	}, nil
}

// NormalizeImageNetCHW converts an image to a [1,3,H,W] tensor with ImageNet
// normalization at its exact dimensions. Layout and table models use this on
// their fixed-size inputs.
func NormalizeImageNetCHW(img image.Image) (inference.Tensor, error) {
	if img == nil {
		return inference.Tensor{}, errors.New("input image is nil")
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 1 || h < 1 {
		return inference.Tensor{}, fmt.Errorf("invalid image dimensions %dx%d", w, h)
	}
	data := make([]float32, 3*w*h)
	writeCHW(data, img, w, h, imageNetMean, imageNetStd)
	return inference.NewFloat32(data, 1, 3, int64(h), int64(w))
}

// fitLongerSide scales (w,h) so the longer side equals target, preserving
// aspect ratio; images already within target are left alone.
func fitLongerSide(w, h, target int) (int, int) {
	longer := max(w, h)
	if longer <= target {
		return w, h
	}
	scale := float64(target) / float64(longer)
	return max(int(float64(w)*scale), 1), max(int(float64(h)*scale), 1)
}

func nextMultiple(v, m int) int {
	return ((v + m - 1) / m) * m
}

// writeCHW renders img into the top-left of a CHW plane set of outW x outH,
// applying (x/255 - mean)/std per channel. Cells outside the image remain
// untouched.
func writeCHW(data []float32, img image.Image, outW, outH int, mean, std [3]float32) {
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > outW {
		w = outW
	}
	if h > outH {
		h = outH
	}
	plane := outW * outH
	for y := range h {
		for x := range w {
			c := nrgba.NRGBAAt(x+bounds.Min.X, y+bounds.Min.Y)
			idx := y*outW + x
			data[idx] = (float32(c.R)/255.0 - mean[0]) / std[0]
			data[plane+idx] = (float32(c.G)/255.0 - mean[1]) / std[1]
			data[2*plane+idx] = (float32(c.B)/255.0 - mean[2]) / std[2]
		}
	}
}
