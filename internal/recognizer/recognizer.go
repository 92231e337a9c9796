// Package recognizer turns cropped text line images into strings using a
// CRNN model with greedy CTC decoding.
package recognizer

import (
	"image"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/preprocess"
)

// Config holds text recognition settings.
type Config struct {
	// Threshold is the minimum overall confidence for a result to be
	// considered usable by callers; the recognizer itself always returns
	// what it decoded.
	Threshold float32
	// CleanText applies NFC normalization and strips control and
	// zero-width characters from decoded text.
	CleanText bool
}

// DefaultConfig returns the standard recognition settings.
func DefaultConfig() Config {
	return Config{Threshold: 0.5, CleanText: true}
}

// Result holds the decoded text of a single region.
type Result struct {
	Text       string
	Confidence float32
	CharScores []float32
}

// TextRecognizer decodes text lines via a recognition model and dictionary.
type TextRecognizer struct {
	backend inference.Backend
	pre     *preprocess.Preprocessor
	dict    Dictionary
	config  Config
}

// New creates a recognizer over the given backend and character dictionary.
func New(backend inference.Backend, dict Dictionary, config Config) *TextRecognizer {
	return &TextRecognizer{
		backend: backend,
		pre:     preprocess.New(),
		dict:    dict,
		config:  config,
	}
}

// Config returns the recognizer configuration.
func (r *TextRecognizer) Config() Config { return r.config }

// Recognize decodes the text in a cropped line image.
func (r *TextRecognizer) Recognize(img image.Image) (Result, error) {
	if img == nil {
		return Result{}, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}

	tensor, err := r.pre.ForRecognition(img)
	if err != nil {
		return Result{}, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "recognition preprocessing")
	}

	outputs, err := r.backend.Run([]inference.NamedTensor{
		{Name: firstName(r.backend.InputNames(), "x"), Tensor: tensor},
	})
	if err != nil {
		return Result{}, ocrerr.Wrap(ocrerr.KindRecognition, err, "recognition inference")
	}
	if len(outputs) == 0 {
		return Result{}, ocrerr.New(ocrerr.KindRecognition, "no output from recognition model")
	}

	shape := outputs[0].Tensor.Shape()
	if len(shape) < 3 {
		return Result{}, ocrerr.New(ocrerr.KindRecognition, "unexpected output shape %v, want [1,T,C]", shape)
	}
	logits, err := outputs[0].Tensor.Float32s()
	if err != nil {
		return Result{}, ocrerr.Wrap(ocrerr.KindRecognition, err, "unexpected output dtype")
	}

	seqLen := int(shape[len(shape)-2])
	numClasses := int(shape[len(shape)-1])
	text, charScores := decodeCTC(logits, seqLen, numClasses, r.dict)
	if r.config.CleanText {
		text = CleanText(text)
	}

	result := Result{
		Text:       text,
		Confidence: meanScore(charScores),
		CharScores: charScores,
	}
	slog.Debug("text recognized", "text", result.Text, "confidence", result.Confidence)
	return result, nil
}

// RecognizeBatch decodes several cropped lines sequentially.
func (r *TextRecognizer) RecognizeBatch(images []image.Image) ([]Result, error) {
	results := make([]Result, 0, len(images))
	for _, img := range images {
		res, err := r.Recognize(img)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// CleanText normalizes decoded text to NFC and strips control and zero-width
// characters. Regular whitespace is preserved.
func CleanText(s string) string {
	s = norm.NFC.String(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\u200b', r == '\u200c', r == '\u200d', r == '\ufeff':
			return -1
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}

func firstName(names []string, fallback string) string {
	if len(names) > 0 {
		return names[0]
	}
	return fallback
}
