// Package batch processes directories of page images through the OCR engine
// sequentially and formats the collected results.
package batch

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fakturo/glyph/internal/engine"
	"github.com/fakturo/glyph/internal/utils"
)

// Config controls batch processing.
type Config struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
	// SkipOnError keeps going after per-file failures instead of aborting
	// the batch.
	SkipOnError bool
	// TableAnalysis additionally recognizes table structure in detected
	// table regions and attaches the rendered HTML per file.
	TableAnalysis bool
}

// FileResult pairs one input file with its OCR outcome.
type FileResult struct {
	Path   string            `json:"path" yaml:"path"`
	Result *engine.OcrResult `json:"result,omitempty" yaml:"result,omitempty"`
	// Tables holds one HTML rendering per recognized table, when table
	// analysis is enabled.
	Tables []string `json:"tables,omitempty" yaml:"tables,omitempty"`
	Error  string   `json:"error,omitempty" yaml:"error,omitempty"`
}

// Result is the outcome of one batch run.
type Result struct {
	Files     []FileResult  `json:"files" yaml:"files"`
	Processed int           `json:"processed" yaml:"processed"`
	Failed    int           `json:"failed" yaml:"failed"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
}

// Process discovers image files under the given paths and runs each through
// the engine, strictly sequentially.
func Process(eng *engine.Engine, paths []string, config Config) (*Result, error) {
	start := time.Now()

	files, err := discoverImageFiles(paths, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %v", paths)
	}
	slog.Info("batch starting", "files", len(files))

	result := &Result{Files: make([]FileResult, 0, len(files))}
	for _, path := range files {
		fr := processFile(eng, path, config.TableAnalysis)
		if fr.Error != "" {
			result.Failed++
			if !config.SkipOnError {
				result.Files = append(result.Files, fr)
				result.Duration = time.Since(start)
				return result, fmt.Errorf("processing %s: %s", path, fr.Error)
			}
			slog.Warn("skipping file", "path", path, "error", fr.Error)
		} else {
			result.Processed++
		}
		result.Files = append(result.Files, fr)
	}

	result.Duration = time.Since(start)
	slog.Info("batch complete",
		"processed", result.Processed,
		"failed", result.Failed,
		"duration", result.Duration)
	return result, nil
}

func processFile(eng *engine.Engine, path string, tableAnalysis bool) FileResult {
	img, err := utils.LoadImage(path)
	if err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}
	res, err := eng.Process(img)
	if err != nil {
		return FileResult{Path: path, Error: err.Error()}
	}

	fr := FileResult{Path: path, Result: res}
	if tableAnalysis {
		structures, err := eng.ProcessTables(img, res)
		if err != nil {
			slog.Warn("table analysis failed", "path", path, "error", err)
		}
		for _, s := range structures {
			fr.Tables = append(fr.Tables, s.ToHTML())
		}
	}
	return fr
}
