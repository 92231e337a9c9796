package cmd

import (
	"fmt"

	"github.com/fakturo/glyph/internal/config"
	"github.com/fakturo/glyph/internal/engine"
	"github.com/fakturo/glyph/internal/inference"
	"github.com/fakturo/glyph/internal/layout"
)

// buildEngine assembles an OCR engine from the application configuration.
func buildEngine(cfg *config.Config) (*engine.Engine, error) {
	engineConfig := engine.Config{
		EnableDetection:      cfg.Engine.EnableDetection,
		EnableClassification: cfg.Engine.EnableClassification,
		EnableRecognition:    cfg.Engine.EnableRecognition,
		RecognitionThreshold: cfg.Engine.RecognitionThreshold,
		MaxImageSize:         cfg.Engine.MaxImageSize,
	}

	comps := engine.DefaultComponentConfigs()
	comps.Detector.Thresh = cfg.Detector.Thresh
	comps.Detector.BoxThresh = cfg.Detector.BoxThresh
	comps.Detector.UnclipRatio = cfg.Detector.UnclipRatio
	comps.Detector.TargetSize = cfg.Detector.TargetSize
	comps.Recognizer.CleanText = cfg.Recognizer.CleanText
	comps.DictPath = cfg.Recognizer.DictPath
	comps.Layout.ConfidenceThresh = cfg.Layout.ConfidenceThresh
	comps.Layout.NMSThresh = cfg.Layout.NMSThresh

	switch cfg.Layout.ModelType {
	case "publaynet", "":
		comps.Layout.ModelType = layout.PubLayNet
	case "cdla":
		comps.Layout.ModelType = layout.CDLA
	default:
		return nil, fmt.Errorf("unknown layout model type %q", cfg.Layout.ModelType)
	}

	opts := inference.SessionOptions{
		NumThreads:  cfg.Session.NumThreads,
		LibraryPath: cfg.Session.LibraryPath,
	}

	return engine.NewFromDirWithComponents(cfg.ModelsDir, engineConfig, comps, opts)
}
