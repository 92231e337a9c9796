package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/fakturo/glyph/internal/utils"
)

// TextBox is one detected and (optionally) recognized text line.
type TextBox struct {
	Box              utils.Quad `json:"box" yaml:"box"`
	Text             string     `json:"text" yaml:"text"`
	DetectionScore   float32    `json:"detection_score" yaml:"detection_score"`
	RecognitionScore float32    `json:"recognition_score" yaml:"recognition_score"`
	Angle            int        `json:"angle" yaml:"angle"`
}

// Center returns the box center point.
func (b TextBox) Center() utils.Point {
	return b.Box.Center()
}

// RegionBox is a layout region in the result summary.
type RegionBox struct {
	Type       string  `json:"type" yaml:"type"`
	X1         float32 `json:"x1" yaml:"x1"`
	Y1         float32 `json:"y1" yaml:"y1"`
	X2         float32 `json:"x2" yaml:"x2"`
	Y2         float32 `json:"y2" yaml:"y2"`
	Confidence float32 `json:"confidence" yaml:"confidence"`
}

// LayoutInfo summarizes the page layout attached to an OCR result.
type LayoutInfo struct {
	Tables      []RegionBox `json:"tables" yaml:"tables"`
	TextRegions []RegionBox `json:"text_regions" yaml:"text_regions"`
	Figures     []RegionBox `json:"figures" yaml:"figures"`
}

// OcrResult is the outcome of processing one page image.
type OcrResult struct {
	Boxes          []TextBox     `json:"boxes" yaml:"boxes"`
	Text           string        `json:"text" yaml:"text"`
	ProcessingTime time.Duration `json:"processing_time" yaml:"processing_time"`
	ImageWidth     int           `json:"image_width" yaml:"image_width"`
	ImageHeight    int           `json:"image_height" yaml:"image_height"`
	Layout         *LayoutInfo   `json:"layout,omitempty" yaml:"layout,omitempty"`
}

// EmptyResult returns a result with no boxes for the given image size.
func EmptyResult(width, height int) *OcrResult {
	return &OcrResult{ImageWidth: width, ImageHeight: height}
}

// readingOrderBand groups boxes into 20 px vertical bands for ordering.
const readingOrderBand = 20.0

// SortByReadingOrder orders boxes top-to-bottom in 20 px bands on the
// axis-aligned top coordinate, left-to-right within a band, and rebuilds the
// joined text. Sorting an already-sorted result changes nothing.
func (r *OcrResult) SortByReadingOrder() {
	sort.SliceStable(r.Boxes, func(i, j int) bool {
		bi := r.Boxes[i].Box.Bounding()
		bj := r.Boxes[j].Box.Bounding()
		bandI := int(bi.MinY / readingOrderBand)
		bandJ := int(bj.MinY / readingOrderBand)
		if bandI != bandJ {
			return bandI < bandJ
		}
		return bi.MinX < bj.MinX
	})

	texts := make([]string, len(r.Boxes))
	for i, b := range r.Boxes {
		texts[i] = b.Text
	}
	r.Text = strings.Join(texts, "\n")
}
