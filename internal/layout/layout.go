// Package layout detects document structure regions (text blocks, titles,
// lists, tables, figures) using a PP-PicoDet style model.
package layout

import (
	"image"
	"log/slog"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/preprocess"
)

// Type classifies a detected layout region.
type Type int

const (
	TypeText Type = iota
	TypeTitle
	TypeList
	TypeTable
	TypeFigure
	TypeUnknown
)

// String returns a human-readable region type name.
func (t Type) String() string {
	switch t {
	case TypeText:
		return "text"
	case TypeTitle:
		return "title"
	case TypeList:
		return "list"
	case TypeTable:
		return "table"
	case TypeFigure:
		return "figure"
	default:
		return "unknown"
	}
}

// IsTable reports whether the region is a table.
func (t Type) IsTable() bool { return t == TypeTable }

// IsText reports whether the region carries running text.
func (t Type) IsText() bool {
	return t == TypeText || t == TypeTitle || t == TypeList
}

// ModelType selects the class index scheme of the loaded layout model.
type ModelType int

const (
	// PubLayNet is the five-class English document model.
	PubLayNet ModelType = iota
	// CDLA is the nine-class model; caption, footer, reference and
	// equation classes fold into text.
	CDLA
)

// fromPubLayNetClass maps a PubLayNet class index to a region type.
func fromPubLayNetClass(class int) Type {
	switch class {
	case 0:
		return TypeText
	case 1:
		return TypeTitle
	case 2:
		return TypeList
	case 3:
		return TypeTable
	case 4:
		return TypeFigure
	default:
		return TypeUnknown
	}
}

// fromCDLAClass maps a CDLA class index to a region type.
func fromCDLAClass(class int) Type {
	switch class {
	case 0:
		return TypeText
	case 1:
		return TypeFigure
	case 2:
		return TypeText // figure caption
	case 3:
		return TypeTable
	case 4:
		return TypeText // table caption
	case 5:
		return TypeTitle // header
	case 6:
		return TypeText // footer
	case 7:
		return TypeText // reference
	case 8:
		return TypeText // equation
	default:
		return TypeUnknown
	}
}

// Config holds layout detection settings.
type Config struct {
	InputWidth       int
	InputHeight      int
	ConfidenceThresh float32
	NMSThresh        float32
	ModelType        ModelType
}

// DefaultConfig returns the PP-PicoDet defaults.
func DefaultConfig() Config {
	return Config{
		InputWidth:       800,
		InputHeight:      608,
		ConfidenceThresh: 0.5,
		NMSThresh:        0.5,
		ModelType:        PubLayNet,
	}
}

// Region is one detected layout element in original-image coordinates.
type Region struct {
	Type       Type
	X1, Y1     float32
	X2, Y2     float32
	Confidence float32
}

// Width returns the region width.
func (r Region) Width() float32 { return r.X2 - r.X1 }

// Height returns the region height.
func (r Region) Height() float32 { return r.Y2 - r.Y1 }

// Area returns the region area.
func (r Region) Area() float32 { return r.Width() * r.Height() }

// ContainsPoint reports whether (x,y) lies within the region, inclusive.
func (r Region) ContainsPoint(x, y float32) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// Overlaps reports whether two regions intersect.
func (r Region) Overlaps(other Region) bool {
	return r.X1 < other.X2 && r.X2 > other.X1 && r.Y1 < other.Y2 && r.Y2 > other.Y1
}

// IoU computes intersection over union with another region.
func (r Region) IoU(other Region) float32 {
	x1 := max(r.X1, other.X1)
	y1 := max(r.Y1, other.Y1)
	x2 := min(r.X2, other.X2)
	y2 := min(r.Y2, other.Y2)
	if x2 < x1 || y2 < y1 {
		return 0
	}
	inter := (x2 - x1) * (y2 - y1)
	union := r.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}

// Result holds the layout regions of one page.
type Result struct {
	Regions     []Region
	ImageWidth  int
	ImageHeight int
}

// Tables returns the table regions.
func (r *Result) Tables() []Region {
	return r.filter(func(reg Region) bool { return reg.Type.IsTable() })
}

// TextRegions returns text, title and list regions.
func (r *Result) TextRegions() []Region {
	return r.filter(func(reg Region) bool { return reg.Type.IsText() })
}

func (r *Result) filter(pred func(Region) bool) []Region {
	var out []Region
	for _, reg := range r.Regions {
		if pred(reg) {
			out = append(out, reg)
		}
	}
	return out
}

// readingOrderBand groups regions into 50 px vertical bands for ordering.
const readingOrderBand = 50.0

// SortedByReadingOrder returns regions ordered top-to-bottom in 50 px bands,
// left-to-right within a band.
func (r *Result) SortedByReadingOrder() []Region {
	out := make([]Region, len(r.Regions))
	copy(out, r.Regions)
	sort.SliceStable(out, func(i, j int) bool {
		bandI := int(out[i].Y1 / readingOrderBand)
		bandJ := int(out[j].Y1 / readingOrderBand)
		if bandI != bandJ {
			return bandI < bandJ
		}
		return out[i].X1 < out[j].X1
	})
	return out
}

// Detector runs layout analysis over full page images.
type Detector struct {
	backend inference.Backend
	config  Config
}

// New creates a layout detector over the given inference backend.
func New(backend inference.Backend, config Config) *Detector {
	return &Detector{backend: backend, config: config}
}

// WithModelType sets the class index scheme.
func (d *Detector) WithModelType(mt ModelType) *Detector {
	d.config.ModelType = mt
	return d
}

// Detect finds layout regions in the page image.
func (d *Detector) Detect(img image.Image) (*Result, error) {
	if img == nil {
		return nil, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}

	bounds := img.Bounds()
	origW, origH := bounds.Dx(), bounds.Dy()
	if origW < 1 || origH < 1 {
		return nil, ocrerr.New(ocrerr.KindInvalidImage, "invalid image dimensions %dx%d", origW, origH)
	}

	resized := imaging.Resize(img, d.config.InputWidth, d.config.InputHeight, imaging.Linear)
	tensor, err := preprocess.NormalizeImageNetCHW(resized)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "layout preprocessing")
	}

	scaleX := float32(d.config.InputWidth) / float32(origW)
	scaleY := float32(d.config.InputHeight) / float32(origH)
	scaleFactor, err := inference.NewFloat32([]float32{scaleY, scaleX}, 1, 2, 1)
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "layout scale tensor")
	}

	outputs, err := d.backend.Run([]inference.NamedTensor{
		{Name: "image", Tensor: tensor},
		{Name: "scale_factor", Tensor: scaleFactor},
	})
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindDetection, err, "layout inference")
	}

	regions, err := d.postProcess(outputs, scaleX, scaleY, origW, origH)
	if err != nil {
		return nil, err
	}

	slog.Debug("layout analysis complete", "regions", len(regions))
	return &Result{Regions: regions, ImageWidth: origW, ImageHeight: origH}, nil
}

// postProcess parses detection rows (class, score, x1, y1, x2, y2) from a
// [N,6] or [1,N,6] output, rescales to original coordinates, and applies NMS.
func (d *Detector) postProcess(outputs []inference.NamedTensor, scaleX, scaleY float32, origW, origH int) ([]Region, error) {
	if len(outputs) == 0 {
		return nil, ocrerr.New(ocrerr.KindDetection, "no output from layout model")
	}

	out := outputs[0].Tensor
	for _, o := range outputs {
		if containsAny(o.Name, "bbox", "output") {
			out = o.Tensor
			break
		}
	}

	shape := out.Shape()
	var numRows int
	switch {
	case len(shape) == 2 && shape[1] == 6:
		numRows = int(shape[0])
	case len(shape) == 3 && shape[2] == 6:
		numRows = int(shape[1])
	default:
		return nil, ocrerr.New(ocrerr.KindDetection, "unexpected layout output shape %v", shape)
	}

	data, err := out.Float32s()
	if err != nil {
		return nil, ocrerr.Wrap(ocrerr.KindDetection, err, "unexpected layout output dtype")
	}

	maxW := float32(origW)
	maxH := float32(origH)
	regions := make([]Region, 0, numRows)
	for i := 0; i < numRows; i++ {
		row := data[i*6 : (i+1)*6]
		score := row[1]
		if score < d.config.ConfidenceThresh {
			continue
		}

		var regionType Type
		class := int(row[0])
		switch d.config.ModelType {
		case CDLA:
			regionType = fromCDLAClass(class)
		default:
			regionType = fromPubLayNetClass(class)
		}

		regions = append(regions, Region{
			Type:       regionType,
			X1:         clamp(row[2]/scaleX, 0, maxW),
			Y1:         clamp(row[3]/scaleY, 0, maxH),
			X2:         clamp(row[4]/scaleX, 0, maxW),
			Y2:         clamp(row[5]/scaleY, 0, maxH),
			Confidence: score,
		})
	}

	return d.nms(regions), nil
}

// nms suppresses overlapping regions of the same type, keeping the
// higher-confidence one. Candidates are visited in descending confidence.
func (d *Detector) nms(regions []Region) []Region {
	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Confidence > regions[j].Confidence
	})

	keep := make([]Region, 0, len(regions))
	for _, reg := range regions {
		dominated := false
		for _, kept := range keep {
			if kept.Type == reg.Type && reg.IoU(kept) > d.config.NMSThresh {
				dominated = true
				break
			}
		}
		if !dominated {
			keep = append(keep, reg)
		}
	}
	return keep
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
