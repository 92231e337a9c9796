package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name of configuration files, without
	// extension.
	ConfigFileName = "glyph"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "GLYPH"
)

// Loader reads configuration from files, environment variables, and defaults.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance so cobra flag
// bindings stay visible.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// Load reads configuration from the standard search paths. A missing config
// file is fine; defaults and environment variables apply.
func (l *Loader) Load() (*Config, error) {
	l.v.SetConfigName(ConfigFileName)
	l.v.SetConfigType("yaml")
	l.addConfigPaths()
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return l.unmarshal()
}

// LoadWithFile reads configuration from an explicit file path.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	if configFile == "" {
		return l.Load()
	}
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configFile)
	}

	l.v.SetConfigFile(configFile)
	l.setupEnvironment()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", configFile, err)
	}
	return l.unmarshal()
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// GetViper exposes the underlying viper instance for flag binding.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// ConfigFileUsed returns the path of the config file that was read, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) addConfigPaths() {
	l.v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		l.v.AddConfigPath(home)
	}
	l.v.AddConfigPath("/etc/glyph")
}

func (l *Loader) setupEnvironment() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()
}

func (l *Loader) setDefaults() {
	def := Default()

	l.v.SetDefault("models_dir", def.ModelsDir)
	l.v.SetDefault("log_level", def.LogLevel)
	l.v.SetDefault("verbose", def.Verbose)

	l.v.SetDefault("engine.enable_detection", def.Engine.EnableDetection)
	l.v.SetDefault("engine.enable_classification", def.Engine.EnableClassification)
	l.v.SetDefault("engine.enable_recognition", def.Engine.EnableRecognition)
	l.v.SetDefault("engine.recognition_threshold", def.Engine.RecognitionThreshold)
	l.v.SetDefault("engine.max_image_size", def.Engine.MaxImageSize)

	l.v.SetDefault("detector.thresh", def.Detector.Thresh)
	l.v.SetDefault("detector.box_thresh", def.Detector.BoxThresh)
	l.v.SetDefault("detector.unclip_ratio", def.Detector.UnclipRatio)
	l.v.SetDefault("detector.target_size", def.Detector.TargetSize)

	l.v.SetDefault("recognizer.dict_path", def.Recognizer.DictPath)
	l.v.SetDefault("recognizer.clean_text", def.Recognizer.CleanText)

	l.v.SetDefault("layout.model_type", def.Layout.ModelType)
	l.v.SetDefault("layout.confidence_thresh", def.Layout.ConfidenceThresh)
	l.v.SetDefault("layout.nms_thresh", def.Layout.NMSThresh)

	l.v.SetDefault("batch.recursive", def.Batch.Recursive)
	l.v.SetDefault("batch.pattern", def.Batch.Pattern)
	l.v.SetDefault("batch.output_dir", def.Batch.OutputDir)
	l.v.SetDefault("batch.skip_on_error", def.Batch.SkipOnError)
	l.v.SetDefault("batch.table_analysis", def.Batch.TableAnalysis)

	l.v.SetDefault("output.format", def.Output.Format)

	l.v.SetDefault("session.num_threads", def.Session.NumThreads)
	l.v.SetDefault("session.library_path", def.Session.LibraryPath)
}
