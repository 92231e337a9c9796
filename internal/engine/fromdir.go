package engine

import (
	"log/slog"

	"github.com/fakturo/glyph/internal/detector"
	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/layout"
	"github.com/fakturo/glyph/internal/models"
	"github.com/fakturo/glyph/internal/orientation"
	"github.com/fakturo/glyph/internal/recognizer"
	"github.com/fakturo/glyph/internal/table"
)

// ComponentConfigs carries per-component tuning for engines assembled from a
// model directory.
type ComponentConfigs struct {
	Detector    detector.Config
	Orientation orientation.Config
	Recognizer  recognizer.Config
	Layout      layout.Config
	Table       table.Config
	// DictPath overrides the conventional dictionary file in the models
	// directory. Empty means use the conventional file or the built-in
	// Latin dictionary.
	DictPath string
}

// DefaultComponentConfigs returns the standard per-component settings.
func DefaultComponentConfigs() ComponentConfigs {
	return ComponentConfigs{
		Detector:    detector.DefaultConfig(),
		Orientation: orientation.DefaultConfig(),
		Recognizer:  recognizer.DefaultConfig(),
		Layout:      layout.DefaultConfig(),
		Table:       table.DefaultConfig(),
	}
}

// NewFromDir assembles an engine from conventionally named model files in a
// directory. Optional models that are absent are skipped; a present model
// that fails to load is an error. With detection enabled but det.onnx
// missing, the engine is still built and Process fails with its fatal
// no-detector error.
func NewFromDir(modelsDir string, config Config, opts inference.SessionOptions) (*Engine, error) {
	return NewFromDirWithComponents(modelsDir, config, DefaultComponentConfigs(), opts)
}

// NewFromDirWithComponents is NewFromDir with explicit per-component
// settings instead of the defaults.
func NewFromDirWithComponents(modelsDir string, config Config, comps ComponentConfigs, opts inference.SessionOptions) (*Engine, error) {
	builder := NewBuilder().WithConfig(config)

	if config.EnableDetection && models.Exists(modelsDir, models.DetectionModel) {
		backend, err := inference.NewORTBackend(models.Path(modelsDir, models.DetectionModel), opts)
		if err != nil {
			return nil, err
		}
		builder.WithDetector(detector.New(backend, comps.Detector))
	}

	if config.EnableClassification && models.Exists(modelsDir, models.ClassifierModel) {
		backend, err := inference.NewORTBackend(models.Path(modelsDir, models.ClassifierModel), opts)
		if err != nil {
			return nil, err
		}
		builder.WithClassifier(orientation.New(backend, comps.Orientation))
	}

	if config.EnableRecognition && models.Exists(modelsDir, models.RecognitionModel) {
		backend, err := inference.NewORTBackend(models.Path(modelsDir, models.RecognitionModel), opts)
		if err != nil {
			return nil, err
		}

		dict, err := loadDictionary(modelsDir, comps.DictPath)
		if err != nil {
			return nil, err
		}

		recConfig := comps.Recognizer
		recConfig.Threshold = config.RecognitionThreshold
		builder.WithRecognizer(recognizer.New(backend, dict, recConfig))
	}

	if models.Exists(modelsDir, models.LayoutModel) {
		backend, err := inference.NewORTBackend(models.Path(modelsDir, models.LayoutModel), opts)
		if err != nil {
			return nil, err
		}
		builder.WithLayoutDetector(layout.New(backend, comps.Layout))
		slog.Debug("layout model loaded", "dir", modelsDir)
	}

	if models.Exists(modelsDir, models.TableStructureModel) {
		backend, err := inference.NewORTBackend(models.Path(modelsDir, models.TableStructureModel), opts)
		if err != nil {
			return nil, err
		}
		builder.WithTableRecognizer(table.NewRecognizer(backend, comps.Table))
		slog.Debug("table model loaded", "dir", modelsDir)
	}

	if models.Exists(modelsDir, models.TableClassifierModel) {
		backend, err := inference.NewORTBackend(models.Path(modelsDir, models.TableClassifierModel), opts)
		if err != nil {
			return nil, err
		}
		builder.WithTableClassifier(table.NewClassifier(backend))
	}

	return builder.Build(), nil
}

func loadDictionary(modelsDir, override string) (recognizer.Dictionary, error) {
	if override != "" {
		return recognizer.LoadDictionary(override)
	}
	if models.Exists(modelsDir, models.DictionaryFile) {
		return recognizer.LoadDictionary(models.Path(modelsDir, models.DictionaryFile))
	}
	return recognizer.DefaultLatinDictionary(), nil
}
