// Package orientation classifies whether a cropped text line is upside down
// and rotates it back when the classifier is confident enough.
package orientation

import (
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/imaging"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/preprocess"
)

// Config holds the angle classifier settings.
type Config struct {
	// ConfidenceThresh is the minimum softmax confidence required before a
	// 180-degree prediction triggers rotation.
	ConfidenceThresh float32
}

// DefaultConfig returns the standard classifier settings.
func DefaultConfig() Config {
	return Config{ConfidenceThresh: 0.9}
}

// Classification is the outcome for one text line crop.
type Classification struct {
	Angle      int     // 0 or 180
	Confidence float32 // softmax probability of the predicted class
	// Rotated reports whether AutoRotate actually flipped the crop; a
	// low-confidence 180 prediction classifies as 180 but stays unrotated.
	Rotated bool
}

// AngleClassifier predicts text line rotation using a two-class model.
type AngleClassifier struct {
	backend inference.Backend
	pre     *preprocess.Preprocessor
	config  Config
}

// New creates an angle classifier over the given inference backend.
func New(backend inference.Backend, config Config) *AngleClassifier {
	return &AngleClassifier{
		backend: backend,
		pre:     preprocess.New(),
		config:  config,
	}
}

// Classify predicts the rotation angle of a single text line crop.
func (c *AngleClassifier) Classify(img image.Image) (Classification, error) {
	if img == nil {
		return Classification{}, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}

	tensor, err := c.pre.ForClassification(img)
	if err != nil {
		return Classification{}, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "classifier preprocessing")
	}

	outputs, err := c.backend.Run([]inference.NamedTensor{
		{Name: firstName(c.backend.InputNames(), "x"), Tensor: tensor},
	})
	if err != nil {
		return Classification{}, ocrerr.Wrap(ocrerr.KindRecognition, err, "angle classification inference")
	}
	if len(outputs) == 0 {
		return Classification{}, ocrerr.New(ocrerr.KindRecognition, "no output from angle classifier")
	}

	scores, err := outputs[0].Tensor.Float32s()
	if err != nil {
		return Classification{}, ocrerr.Wrap(ocrerr.KindRecognition, err, "unexpected classifier output dtype")
	}
	if len(scores) < 2 {
		return Classification{}, ocrerr.New(ocrerr.KindRecognition, "classifier output has %d scores, want 2", len(scores))
	}

	probs := softmax(scores[:2])
	cls := Classification{Angle: 0, Confidence: probs[0]}
	if probs[1] > probs[0] {
		cls = Classification{Angle: 180, Confidence: probs[1]}
	}
	return cls, nil
}

// AutoRotate classifies the crop and rotates it 180 degrees when the model is
// confident it is upside down. The original image is returned unchanged in
// every other case.
func (c *AngleClassifier) AutoRotate(img image.Image) (image.Image, Classification, error) {
	cls, err := c.Classify(img)
	if err != nil {
		return nil, Classification{}, err
	}
	if cls.Angle == 180 && cls.Confidence > c.config.ConfidenceThresh {
		slog.Debug("rotating text line", "confidence", cls.Confidence)
		cls.Rotated = true
		return imaging.Rotate180(img), cls, nil
	}
	return img, cls, nil
}

func softmax(logits []float32) []float32 {
	maxL := logits[0]
	for _, l := range logits[1:] {
		if l > maxL {
			maxL = l
		}
	}
	var sum float64
	out := make([]float32, len(logits))
	for i, l := range logits {
		e := math.Exp(float64(l - maxL))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

func firstName(names []string, fallback string) string {
	if len(names) > 0 {
		return names[0]
	}
	return fallback
}
