package table

import (
	"image"
	"log/slog"
	"strings"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/preprocess"
)

// TokenVocabulary maps structure model output indices to their roles. The
// numeric layout is model-specific; this default matches the exported SLANet
// vocabulary.
type TokenVocabulary struct {
	EOS       int64
	CellOpen  int64
	CellClose int64
	RowOpen   int64
	RowClose  int64
	// Colspan tokens occupy [ColSpanBase, ColSpanBase+13); token t encodes
	// span t-ColSpanBase. Rowspan tokens follow the same scheme.
	ColSpanBase int64
	RowSpanBase int64
}

// DefaultVocabulary returns the standard SLANet token layout.
func DefaultVocabulary() TokenVocabulary {
	return TokenVocabulary{
		EOS:         2,
		CellOpen:    3,
		CellClose:   4,
		RowOpen:     5,
		RowClose:    6,
		ColSpanBase: 7,
		RowSpanBase: 20,
	}
}

// spanTokenRange is the number of indices reserved per span family.
const spanTokenRange = 13

// maxSpan clamps decoded spans against malformed token values.
const maxSpan = 10

// Config holds table structure recognition settings.
type Config struct {
	InputSize  int // letterbox square side
	MaxLength  int // token stream cap
	Vocabulary TokenVocabulary
}

// DefaultConfig returns the SLANet defaults.
func DefaultConfig() Config {
	return Config{
		InputSize:  488,
		MaxLength:  500,
		Vocabulary: DefaultVocabulary(),
	}
}

// Recognizer decodes table structure from table region images.
type Recognizer struct {
	backend inference.Backend
	config  Config
}

// NewRecognizer creates a table structure recognizer over the given backend.
func NewRecognizer(backend inference.Backend, config Config) *Recognizer {
	return &Recognizer{backend: backend, config: config}
}

// Recognize extracts the table structure from a cropped table image.
func (r *Recognizer) Recognize(img image.Image) (*Structure, error) {
	if img == nil {
		return nil, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()

	lb, err := preprocess.LetterboxSquare(img, r.config.InputSize)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "table letterbox")
	}
	tensor, err := preprocess.NormalizeImageNetCHW(lb.Image)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "table preprocessing")
	}

	outputs, err := r.backend.Run([]inference.NamedTensor{
		{Name: firstName(r.backend.InputNames(), "x"), Tensor: tensor},
	})
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindDetection, err, "table structure inference")
	}
	if len(outputs) == 0 {
		return nil, ocrerr.New(ocrerr.KindDetection, "no output from table structure model")
	}

	tokens, err := structureTokens(outputs)
	if err != nil {
		return nil, err
	}
	if len(tokens) > r.config.MaxLength {
		tokens = tokens[:r.config.MaxLength]
	}
	boxes := cellBoxes(outputs)

	cells, numRows, numCols := r.decodeTokens(tokens, boxes, lb)

	s := &Structure{
		NumRows:    numRows,
		NumCols:    numCols,
		Cells:      cells,
		X2:         float32(origW),
		Y2:         float32(origH),
		Confidence: 1.0,
	}
	s.normalize()

	slog.Debug("table structure recognized",
		"rows", s.NumRows, "cols", s.NumCols, "cells", len(s.Cells))
	return s, nil
}

// structureTokens extracts the token stream: either raw int64 indices or
// float32 logits that need a per-step argmax.
func structureTokens(outputs []inference.NamedTensor) ([]int64, error) {
	out := outputs[0].Tensor
	for _, o := range outputs {
		if strings.Contains(o.Name, "structure") || strings.Contains(o.Name, "output") {
			out = o.Tensor
			break
		}
	}

	if tokens, err := out.Int64s(); err == nil {
		cloned := make([]int64, len(tokens))
		copy(cloned, tokens)
		return cloned, nil
	}

	logits, err := out.Float32s()
	if err != nil {
		return nil, ocrerr.New(ocrerr.KindDetection, "unexpected structure output dtype %s", out.DType())
	}
	shape := out.Shape()
	if len(shape) < 2 {
		return nil, ocrerr.New(ocrerr.KindDetection, "unexpected structure output shape %v", shape)
	}
	seqLen := int(shape[len(shape)-2])
	vocab := int(shape[len(shape)-1])

	tokens := make([]int64, 0, seqLen)
	for t := 0; t < seqLen; t++ {
		row := logits[t*vocab : (t+1)*vocab]
		maxIdx := 0
		for i := 1; i < vocab; i++ {
			if row[i] > row[maxIdx] {
				maxIdx = i
			}
		}
		tokens = append(tokens, int64(maxIdx))
	}
	return tokens, nil
}

// cellBoxes extracts the parallel per-cell bbox tensor, nil when absent.
func cellBoxes(outputs []inference.NamedTensor) []float32 {
	for _, o := range outputs {
		if strings.Contains(o.Name, "bbox") || strings.Contains(o.Name, "loc") {
			if data, err := o.Tensor.Float32s(); err == nil {
				return data
			}
		}
	}
	return nil
}

// decodeTokens walks the token stream with a (row, col) cursor, emitting one
// cell per cell-close and consuming bbox entries in order.
func (r *Recognizer) decodeTokens(tokens []int64, boxes []float32, lb preprocess.Letterbox) ([]Cell, int, int) {
	v := r.config.Vocabulary

	var cells []Cell
	currentRow := 0
	currentCol := 0
	maxCols := 0
	cellIdx := 0

	inCell := false
	rowSpan := 1
	colSpan := 1

	for _, token := range tokens {
		switch {
		case token == v.EOS:
			return cells, max(currentRow, 1), max(maxCols, 1)
		case token == v.RowOpen:
			currentCol = 0
		case token == v.RowClose:
			if currentCol > maxCols {
				maxCols = currentCol
			}
			currentRow++
		case token == v.CellOpen:
			inCell = true
			rowSpan, colSpan = 1, 1
		case token == v.CellClose:
			if !inCell {
				continue
			}
			cell := Cell{
				Row:        currentRow,
				Col:        currentCol,
				RowSpan:    rowSpan,
				ColSpan:    colSpan,
				Confidence: 1.0,
			}
			if base := cellIdx * 4; boxes != nil && base+4 <= len(boxes) {
				x1, y1 := lb.MapBack(float64(boxes[base]), float64(boxes[base+1]))
				x2, y2 := lb.MapBack(float64(boxes[base+2]), float64(boxes[base+3]))
				cell.X1, cell.Y1 = float32(x1), float32(y1)
				cell.X2, cell.Y2 = float32(x2), float32(y2)
			}
			cells = append(cells, cell)
			currentCol += colSpan
			cellIdx++
			inCell = false
		case token >= v.ColSpanBase && token < v.ColSpanBase+spanTokenRange:
			colSpan = clampSpan(int(token - v.ColSpanBase))
		case token >= v.RowSpanBase && token < v.RowSpanBase+spanTokenRange:
			rowSpan = clampSpan(int(token - v.RowSpanBase))
		}
	}
	return cells, max(currentRow, 1), max(maxCols, 1)
}

func clampSpan(span int) int {
	if span < 1 {
		return 1
	}
	if span > maxSpan {
		return maxSpan
	}
	return span
}
