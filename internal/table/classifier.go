package table

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/preprocess"
)

// Type distinguishes table rendering styles.
type Type int

const (
	// Wired tables have visible grid lines.
	Wired Type = iota
	// Lineless tables rely on whitespace alignment only.
	Lineless
)

// String returns the table type name.
func (t Type) String() string {
	switch t {
	case Wired:
		return "wired"
	case Lineless:
		return "lineless"
	default:
		return "unknown"
	}
}

// classifierInputSize is the fixed square input of the table classifier.
const classifierInputSize = 224

// Classifier predicts whether a table image is wired or lineless.
type Classifier struct {
	backend inference.Backend
}

// NewClassifier creates a table type classifier over the given backend.
func NewClassifier(backend inference.Backend) *Classifier {
	return &Classifier{backend: backend}
}

// Classify predicts the table type and its softmax confidence.
func (c *Classifier) Classify(img image.Image) (Type, float32, error) {
	if img == nil {
		return Wired, 0, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}

	resized := imaging.Resize(img, classifierInputSize, classifierInputSize, imaging.Linear)
	tensor, err := preprocess.NormalizeImageNetCHW(resized)
	if err != nil {
		return Wired, 0, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "table classifier preprocessing")
	}

	outputs, err := c.backend.Run([]inference.NamedTensor{
		{Name: firstName(c.backend.InputNames(), "x"), Tensor: tensor},
	})
	if err != nil {
		return Wired, 0, ocrerr.Wrap(ocrerr.KindDetection, err, "table classification inference")
	}
	if len(outputs) == 0 {
		return Wired, 0, ocrerr.New(ocrerr.KindDetection, "no output from table classifier")
	}

	scores, err := outputs[0].Tensor.Float32s()
	if err != nil {
		return Wired, 0, ocrerr.Wrap(ocrerr.KindDetection, err, "unexpected classifier output dtype")
	}
	if len(scores) < 2 {
		return Wired, 0, ocrerr.New(ocrerr.KindDetection, "classifier output has %d scores, want 2", len(scores))
	}

	wired, lineless := scores[0], scores[1]
	maxScore := wired
	if lineless > maxScore {
		maxScore = lineless
	}
	wiredExp := float32(math.Exp(float64(wired - maxScore)))
	linelessExp := float32(math.Exp(float64(lineless - maxScore)))
	sum := wiredExp + linelessExp

	if wiredExp > linelessExp {
		return Wired, wiredExp / sum, nil
	}
	return Lineless, linelessExp / sum, nil
}

func firstName(names []string, fallback string) string {
	if len(names) > 0 {
		return names[0]
	}
	return fallback
}
