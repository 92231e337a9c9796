// Package engine orchestrates the OCR pipeline: text detection, orientation
// classification, recognition, and layout analysis over page images.
package engine

import (
	"image"
	"log/slog"
	"time"

	"github.com/fakturo/glyph/internal/detector"
	"github.com/fakturo/glyph/internal/layout"
	"github.com/fakturo/glyph/internal/metrics"
	"github.com/fakturo/glyph/internal/ocrerr"
	"github.com/fakturo/glyph/internal/orientation"
	"github.com/fakturo/glyph/internal/preprocess"
	"github.com/fakturo/glyph/internal/recognizer"
	"github.com/fakturo/glyph/internal/table"
	"github.com/fakturo/glyph/internal/utils"
)

// Config holds engine-level settings. Per-stage enable flags switch pipeline
// stages off without removing their components.
type Config struct {
	EnableDetection      bool    `mapstructure:"enable_detection" yaml:"enable_detection"`
	EnableClassification bool    `mapstructure:"enable_classification" yaml:"enable_classification"`
	EnableRecognition    bool    `mapstructure:"enable_recognition" yaml:"enable_recognition"`
	RecognitionThreshold float32 `mapstructure:"recognition_threshold" yaml:"recognition_threshold"`
	MaxImageSize         int     `mapstructure:"max_image_size" yaml:"max_image_size"`
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		EnableDetection:      true,
		EnableClassification: true,
		EnableRecognition:    true,
		RecognitionThreshold: 0.5,
		MaxImageSize:         2048,
	}
}

// Engine runs the OCR pipeline. All components except the detector are
// optional; disabled or absent stages are skipped.
type Engine struct {
	detector        *detector.Detector
	classifier      *orientation.AngleClassifier
	recognizer      *recognizer.TextRecognizer
	layoutDetector  *layout.Detector
	tableRecognizer *table.Recognizer
	tableClassifier *table.Classifier
	pre             *preprocess.Preprocessor
	config          Config
}

// Builder assembles an Engine from its components.
type Builder struct {
	engine Engine
}

// NewBuilder creates a builder with default configuration.
func NewBuilder() *Builder {
	return &Builder{engine: Engine{config: DefaultConfig()}}
}

// WithDetector sets the text detector.
func (b *Builder) WithDetector(d *detector.Detector) *Builder {
	b.engine.detector = d
	return b
}

// WithClassifier sets the orientation classifier.
func (b *Builder) WithClassifier(c *orientation.AngleClassifier) *Builder {
	b.engine.classifier = c
	return b
}

// WithRecognizer sets the text recognizer.
func (b *Builder) WithRecognizer(r *recognizer.TextRecognizer) *Builder {
	b.engine.recognizer = r
	return b
}

// WithLayoutDetector sets the layout detector.
func (b *Builder) WithLayoutDetector(d *layout.Detector) *Builder {
	b.engine.layoutDetector = d
	return b
}

// WithTableRecognizer sets the table structure recognizer.
func (b *Builder) WithTableRecognizer(r *table.Recognizer) *Builder {
	b.engine.tableRecognizer = r
	return b
}

// WithTableClassifier sets the wired/lineless table classifier.
func (b *Builder) WithTableClassifier(c *table.Classifier) *Builder {
	b.engine.tableClassifier = c
	return b
}

// WithConfig sets the engine configuration.
func (b *Builder) WithConfig(config Config) *Builder {
	b.engine.config = config
	return b
}

// Build finalizes the engine.
func (b *Builder) Build() *Engine {
	e := b.engine
	e.pre = preprocess.New()
	if e.config.MaxImageSize > 0 {
		e.pre = e.pre.WithMaxSize(e.config.MaxImageSize)
	}
	return &e
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.config }

// HasLayoutDetection reports whether layout analysis is available.
func (e *Engine) HasLayoutDetection() bool { return e.layoutDetector != nil }

// Process runs the full pipeline on one page image.
func (e *Engine) Process(img image.Image) (*OcrResult, error) {
	start := time.Now()

	result, err := e.process(img, start)
	metrics.PageProcessed(err)
	if err != nil {
		return nil, err
	}
	metrics.ObserveDuration(metrics.StageTotal, result.ProcessingTime)
	metrics.ObserveRegions(len(result.Boxes))
	metrics.ObserveTextLength(len(result.Text))
	return result, nil
}

func (e *Engine) process(img image.Image, start time.Time) (*OcrResult, error) {
	if img == nil {
		return nil, ocrerr.New(ocrerr.KindInvalidImage, "input image is nil")
	}
	width, height := utils.ImageSize(img)
	slog.Info("processing page", "width", width, "height", height)

	boxes, scores, err := e.detectRegions(img, width, height)
	if err != nil {
		return nil, err
	}
	if len(boxes) == 0 {
		slog.Debug("no text regions detected")
		return EmptyResult(width, height), nil
	}

	textBoxes := make([]TextBox, 0, len(boxes))
	for i, box := range boxes {
		tb, keep, err := e.processRegion(img, box, scores[i])
		if err != nil {
			return nil, err
		}
		if keep {
			textBoxes = append(textBoxes, tb)
		}
	}

	result := &OcrResult{
		Boxes:       textBoxes,
		ImageWidth:  width,
		ImageHeight: height,
		Layout:      e.detectLayoutInfo(img),
	}
	result.SortByReadingOrder()
	result.ProcessingTime = time.Since(start)

	slog.Info("page complete",
		"boxes", len(result.Boxes),
		"duration", result.ProcessingTime)
	return result, nil
}

// detectRegions runs detection, or falls back to the whole image as a single
// region when detection is disabled. A missing detector is fatal.
func (e *Engine) detectRegions(img image.Image, width, height int) ([]utils.Quad, []float32, error) {
	if e.detector == nil {
		return nil, nil, ocrerr.New(ocrerr.KindDetection, "no detector configured")
	}
	if !e.config.EnableDetection {
		whole := utils.QuadFromBox(utils.NewBox(0, 0, float64(width), float64(height)))
		return []utils.Quad{whole}, []float32{1.0}, nil
	}

	detStart := time.Now()
	det, err := e.detector.Detect(img)
	if err != nil {
		return nil, nil, err
	}
	metrics.ObserveDuration(metrics.StageDetection, time.Since(detStart))
	return det.Boxes, det.Scores, nil
}

// processRegion crops one region, optionally fixes its orientation, and
// optionally recognizes its text. keep is false when the recognition score
// falls below the configured threshold.
func (e *Engine) processRegion(img image.Image, box utils.Quad, detScore float32) (TextBox, bool, error) {
	cropped, err := e.pre.CropRegion(img, box)
	if err != nil {
		return TextBox{}, false, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "cropping region")
	}

	angle := 0
	if e.classifier != nil && e.config.EnableClassification {
		clsStart := time.Now()
		rotated, cls, err := e.classifier.AutoRotate(cropped)
		if err != nil {
			return TextBox{}, false, err
		}
		metrics.ObserveDuration(metrics.StageClassification, time.Since(clsStart))
		cropped = rotated
		if cls.Rotated {
			angle = 180
		}
	}

	var text string
	var recScore float32
	if e.recognizer != nil && e.config.EnableRecognition {
		recStart := time.Now()
		rec, err := e.recognizer.Recognize(cropped)
		if err != nil {
			return TextBox{}, false, err
		}
		metrics.ObserveDuration(metrics.StageRecognition, time.Since(recStart))
		text = rec.Text
		recScore = rec.Confidence

		if recScore < e.config.RecognitionThreshold {
			return TextBox{}, false, nil
		}
	}

	return TextBox{
		Box:              box,
		Text:             text,
		DetectionScore:   detScore,
		RecognitionScore: recScore,
		Angle:            angle,
	}, true, nil
}

// detectLayoutInfo runs layout analysis once per page. Failures degrade to
// nil, never aborting the text pipeline.
func (e *Engine) detectLayoutInfo(img image.Image) *LayoutInfo {
	if e.layoutDetector == nil {
		return nil
	}

	layoutStart := time.Now()
	res, err := e.layoutDetector.Detect(img)
	if err != nil {
		slog.Warn("layout analysis failed", "error", err)
		return nil
	}
	metrics.ObserveDuration(metrics.StageLayout, time.Since(layoutStart))

	info := &LayoutInfo{}
	for _, reg := range res.Regions {
		rb := RegionBox{
			Type:       reg.Type.String(),
			X1:         reg.X1,
			Y1:         reg.Y1,
			X2:         reg.X2,
			Y2:         reg.Y2,
			Confidence: reg.Confidence,
		}
		switch {
		case reg.Type.IsTable():
			info.Tables = append(info.Tables, rb)
		case reg.Type.IsText():
			info.TextRegions = append(info.TextRegions, rb)
		case reg.Type == layout.TypeFigure:
			info.Figures = append(info.Figures, rb)
		}
	}
	slog.Debug("layout attached",
		"tables", len(info.Tables),
		"text_regions", len(info.TextRegions),
		"figures", len(info.Figures))
	return info
}

// ProcessBatch runs Process over several images sequentially.
func (e *Engine) ProcessBatch(images []image.Image) ([]*OcrResult, error) {
	results := make([]*OcrResult, 0, len(images))
	for _, img := range images {
		res, err := e.Process(img)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ExtractText runs Process and returns only the joined text.
func (e *Engine) ExtractText(img image.Image) (string, error) {
	result, err := e.Process(img)
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// DetectLayout exposes the raw layout result, nil when no layout detector is
// configured.
func (e *Engine) DetectLayout(img image.Image) (*layout.Result, error) {
	if e.layoutDetector == nil {
		return nil, nil
	}
	return e.layoutDetector.Detect(img)
}

// ProcessTables recognizes table structure for every table region found in a
// processed result and fills cell contents from the result's text boxes.
// Requires a table recognizer; returns nil when absent or when the result
// carries no layout info.
func (e *Engine) ProcessTables(img image.Image, result *OcrResult) ([]*table.Structure, error) {
	if e.tableRecognizer == nil || result == nil || result.Layout == nil {
		return nil, nil
	}

	fragments := make([]table.TextFragment, 0, len(result.Boxes))
	for _, tb := range result.Boxes {
		c := tb.Center()
		fragments = append(fragments, table.TextFragment{
			X:    float32(c.X),
			Y:    float32(c.Y),
			Text: tb.Text,
		})
	}

	var structures []*table.Structure
	for _, region := range result.Layout.Tables {
		quad := utils.QuadFromBox(utils.NewBox(
			float64(region.X1), float64(region.Y1),
			float64(region.X2), float64(region.Y2)))
		cropped, err := e.pre.CropRegion(img, quad)
		if err != nil {
			return nil, ocrerr.Wrap(ocrerr.KindPreprocessing, err, "cropping table region")
		}

		tableStart := time.Now()
		s, err := e.tableRecognizer.Recognize(cropped)
		if err != nil {
			slog.Warn("table recognition failed", "error", err)
			continue
		}

		if e.tableClassifier != nil {
			kind, conf, err := e.tableClassifier.Classify(cropped)
			if err != nil {
				slog.Warn("table classification failed", "error", err)
			} else {
				s.Kind = kind
				slog.Debug("table classified", "kind", kind, "confidence", conf)
			}
		}
		metrics.ObserveDuration(metrics.StageTable, time.Since(tableStart))

		// Cell bboxes are relative to the cropped table; shift the
		// fragments into table space before assignment.
		local := make([]table.TextFragment, 0, len(fragments))
		for _, f := range fragments {
			local = append(local, table.TextFragment{
				X:    f.X - region.X1,
				Y:    f.Y - region.Y1,
				Text: f.Text,
			})
		}
		s.FillCells(local)
		structures = append(structures, s)
	}
	return structures, nil
}
