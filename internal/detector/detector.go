// Package detector locates text regions on a page image. The model emits a
// per-pixel probability map; binarization, connected components, box
// expansion and coordinate mapping all happen here.
package detector

import (
	"image"
	"log/slog"
	"time"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/preprocess"
	"github.com/fakturo/glyph/internal/utils"
)

// Config holds the text detection thresholds.
type Config struct {
	Thresh      float32 // probability-map binarization threshold
	BoxThresh   float32 // minimum mean in-component probability to keep a box
	UnclipRatio float64 // symmetric box expansion factor
	TargetSize  int     // detection network target for the longer side
	MaxSize     int     // hard cap on input size
}

// DefaultConfig returns the standard DB detection thresholds.
func DefaultConfig() Config {
	return Config{
		Thresh:      0.3,
		BoxThresh:   0.6,
		UnclipRatio: 1.5,
		TargetSize:  960,
		MaxSize:     2048,
	}
}

// DetectionResult holds the quadrilateral text boxes found in one image, with
// parallel confidence scores, in original-image coordinates.
type DetectionResult struct {
	Boxes          []utils.Quad
	Scores         []float32
	ImageWidth     int
	ImageHeight    int
	ProcessingTime time.Duration
}

// Detector runs the detection model and decodes its probability map.
type Detector struct {
	backend inference.Backend
	pre     *preprocess.Preprocessor
	config  Config
}

// New creates a detector over the given inference backend.
func New(backend inference.Backend, config Config) *Detector {
	pre := preprocess.New()
	if config.TargetSize > 0 {
		pre = pre.WithDetTargetSize(config.TargetSize)
	}
	if config.MaxSize > 0 {
		pre = pre.WithMaxSize(config.MaxSize)
	}
	return &Detector{backend: backend, pre: pre, config: config}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config { return d.config }

// Detect locates text regions in the image. An image with no text yields an
// empty result, not an error.
func (d *Detector) Detect(img image.Image) (*DetectionResult, error) {
	if img == nil {
		return nil, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}
	start := time.Now()

	input, err := d.pre.ForDetection(img)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "detection preprocessing")
	}
	defer input.Release()

	outputs, err := d.backend.Run([]inference.NamedTensor{
		{Name: firstName(d.backend.InputNames(), "x"), Tensor: input.Tensor},
	})
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindDetection, err, "detection inference")
	}
	if len(outputs) == 0 {
		return nil, ocrerr.New(ocrerr.KindDetection, "no output from detection model")
	}

	probMap, mapW, mapH, err := probabilityMap(outputs[0].Tensor)
	if err != nil {
		return nil, err
	}

	boxes, scores := d.decodeBoxes(probMap, mapW, mapH, input)

	slog.Debug("text detection complete",
		"regions", len(boxes),
		"map_width", mapW,
		"map_height", mapH,
		"duration", time.Since(start))

	return &DetectionResult{
		Boxes:          boxes,
		Scores:         scores,
		ImageWidth:     input.OriginalWidth,
		ImageHeight:    input.OriginalHeight,
		ProcessingTime: time.Since(start),
	}, nil
}

// probabilityMap validates the model output as a [1,1,H,W] float32 map.
func probabilityMap(t inference.Tensor) ([]float32, int, int, error) {
	shape := t.Shape()
	if len(shape) != 4 || shape[0] != 1 || shape[1] != 1 {
		return nil, 0, 0, ocrerr.New(ocrerr.KindDetection, "unexpected output shape %v, want [1,1,H,W]", shape)
	}
	data, err := t.Float32s()
	if err != nil {
		return nil, 0, 0, ocrerr.Wrap(ocrerr.KindDetection, err, "unexpected output dtype")
	}
	return data, int(shape[3]), int(shape[2]), nil
}

func firstName(names []string, fallback string) string {
	if len(names) > 0 {
		return names[0]
	}
	return fallback
}
