// Package models resolves model and dictionary files inside a models
// directory, with an environment override for deployments.
package models

import (
	"os"
	"path/filepath"

	"github.com/fakturo/glyph/internal/ocrerr"
)

// Conventional model file names inside a models directory.
const (
	DetectionModel       = "det.onnx"
	ClassifierModel      = "cls.onnx"
	RecognitionModel     = "latin_rec.onnx"
	DictionaryFile       = "latin_dict.txt"
	LayoutModel          = "layout.onnx"
	TableStructureModel  = "table.onnx"
	TableClassifierModel = "table_cls.onnx"
)

// DefaultModelsDir is used when no directory is configured.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory.
const EnvModelsDir = "GLYPH_MODELS_DIR"

// Dir returns the models directory: explicit argument, then environment
// variable, then the default.
func Dir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	return DefaultModelsDir
}

// Path resolves a model filename inside the models directory.
func Path(modelsDir, filename string) string {
	return filepath.Join(Dir(modelsDir), filename)
}

// Exists reports whether a model file is present.
func Exists(modelsDir, filename string) bool {
	_, err := os.Stat(Path(modelsDir, filename))
	return err == nil
}

// Require resolves a model file and fails with a ModelLoad error when it is
// missing.
func Require(modelsDir, filename string) (string, error) {
	path := Path(modelsDir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", ocrerr.Wrap(ocrerr.KindModelLoad, err, "model file %s", path)
	}
	return path, nil
}

// Info describes one known model file.
type Info struct {
	Name        string
	Filename    string
	Description string
}

// List returns the known model files in the conventional layout.
func List() []Info {
	return []Info{
		{Name: "detection", Filename: DetectionModel, Description: "DB text detection model"},
		{Name: "classifier", Filename: ClassifierModel, Description: "Text line orientation classifier"},
		{Name: "recognition", Filename: RecognitionModel, Description: "Latin CRNN recognition model"},
		{Name: "dictionary", Filename: DictionaryFile, Description: "Recognition character dictionary"},
		{Name: "layout", Filename: LayoutModel, Description: "PP-PicoDet layout analysis model"},
		{Name: "table", Filename: TableStructureModel, Description: "SLANet table structure model"},
		{Name: "table-classifier", Filename: TableClassifierModel, Description: "Wired/lineless table classifier"},
	}
}
