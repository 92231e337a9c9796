// Package config defines the application configuration and its validation.
package config

import (
	"fmt"
	"strings"
)

// Config is the complete application configuration, loadable from a YAML
// file, environment variables, and command-line flags.
type Config struct {
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine" json:"engine"`
	Detector   DetectorConfig   `mapstructure:"detector" yaml:"detector" json:"detector"`
	Recognizer RecognizerConfig `mapstructure:"recognizer" yaml:"recognizer" json:"recognizer"`
	Layout     LayoutConfig     `mapstructure:"layout" yaml:"layout" json:"layout"`
	Batch      BatchConfig      `mapstructure:"batch" yaml:"batch" json:"batch"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Session    SessionConfig    `mapstructure:"session" yaml:"session" json:"session"`
}

// EngineConfig controls the pipeline stages.
type EngineConfig struct {
	EnableDetection      bool    `mapstructure:"enable_detection" yaml:"enable_detection" json:"enable_detection"`
	EnableClassification bool    `mapstructure:"enable_classification" yaml:"enable_classification" json:"enable_classification"`
	EnableRecognition    bool    `mapstructure:"enable_recognition" yaml:"enable_recognition" json:"enable_recognition"`
	RecognitionThreshold float32 `mapstructure:"recognition_threshold" yaml:"recognition_threshold" json:"recognition_threshold"`
	MaxImageSize         int     `mapstructure:"max_image_size" yaml:"max_image_size" json:"max_image_size"`
}

// DetectorConfig holds text detection thresholds.
type DetectorConfig struct {
	Thresh      float32 `mapstructure:"thresh" yaml:"thresh" json:"thresh"`
	BoxThresh   float32 `mapstructure:"box_thresh" yaml:"box_thresh" json:"box_thresh"`
	UnclipRatio float64 `mapstructure:"unclip_ratio" yaml:"unclip_ratio" json:"unclip_ratio"`
	TargetSize  int     `mapstructure:"target_size" yaml:"target_size" json:"target_size"`
}

// RecognizerConfig holds recognition settings.
type RecognizerConfig struct {
	DictPath  string `mapstructure:"dict_path" yaml:"dict_path" json:"dict_path"`
	CleanText bool   `mapstructure:"clean_text" yaml:"clean_text" json:"clean_text"`
}

// LayoutConfig holds layout analysis settings.
type LayoutConfig struct {
	ModelType        string  `mapstructure:"model_type" yaml:"model_type" json:"model_type"`
	ConfidenceThresh float32 `mapstructure:"confidence_thresh" yaml:"confidence_thresh" json:"confidence_thresh"`
	NMSThresh        float32 `mapstructure:"nms_thresh" yaml:"nms_thresh" json:"nms_thresh"`
}

// BatchConfig holds batch processing settings.
type BatchConfig struct {
	Recursive     bool   `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Pattern       string `mapstructure:"pattern" yaml:"pattern" json:"pattern"`
	OutputDir     string `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
	SkipOnError   bool   `mapstructure:"skip_on_error" yaml:"skip_on_error" json:"skip_on_error"`
	TableAnalysis bool   `mapstructure:"table_analysis" yaml:"table_analysis" json:"table_analysis"`
}

// OutputConfig holds result formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"` // text, json, yaml
}

// SessionConfig holds inference session tuning.
type SessionConfig struct {
	NumThreads  int    `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	LibraryPath string `mapstructure:"library_path" yaml:"library_path" json:"library_path"`
}

// Default returns the standard configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			EnableDetection:      true,
			EnableClassification: true,
			EnableRecognition:    true,
			RecognitionThreshold: 0.5,
			MaxImageSize:         2048,
		},
		Detector: DetectorConfig{
			Thresh:      0.3,
			BoxThresh:   0.6,
			UnclipRatio: 1.5,
			TargetSize:  960,
		},
		Recognizer: RecognizerConfig{CleanText: true},
		Layout: LayoutConfig{
			ModelType:        "publaynet",
			ConfidenceThresh: 0.5,
			NMSThresh:        0.5,
		},
		Batch:  BatchConfig{Pattern: "*", SkipOnError: true},
		Output: OutputConfig{Format: "text"},
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}

	if c.Engine.RecognitionThreshold < 0 || c.Engine.RecognitionThreshold > 1 {
		return fmt.Errorf("recognition_threshold %v out of range [0,1]", c.Engine.RecognitionThreshold)
	}
	if c.Detector.Thresh < 0 || c.Detector.Thresh > 1 {
		return fmt.Errorf("detector thresh %v out of range [0,1]", c.Detector.Thresh)
	}
	if c.Detector.BoxThresh < 0 || c.Detector.BoxThresh > 1 {
		return fmt.Errorf("detector box_thresh %v out of range [0,1]", c.Detector.BoxThresh)
	}
	if c.Detector.UnclipRatio < 1.0 {
		return fmt.Errorf("detector unclip_ratio %v must be >= 1.0", c.Detector.UnclipRatio)
	}

	switch strings.ToLower(c.Layout.ModelType) {
	case "publaynet", "cdla", "":
	default:
		return fmt.Errorf("invalid layout model_type %q", c.Layout.ModelType)
	}

	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "yaml", "":
	default:
		return fmt.Errorf("invalid output format %q", c.Output.Format)
	}
	return nil
}
