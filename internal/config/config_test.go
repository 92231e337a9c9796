package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshLoader() *Loader {
	return &Loader{v: viper.New()}
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Engine.EnableDetection)
	assert.InDelta(t, 0.5, cfg.Engine.RecognitionThreshold, 1e-6)
	assert.InDelta(t, 0.3, cfg.Detector.Thresh, 1e-6)
	assert.Equal(t, "text", cfg.Output.Format)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "chatty"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Engine.RecognitionThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Detector.UnclipRatio = 0.5
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Layout.ModelType = "imagenet"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Output.Format = "xml"
	assert.Error(t, cfg.Validate())
}

func TestLoaderDefaults(t *testing.T) {
	cfg, err := freshLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Engine.EnableRecognition)
	assert.InDelta(t, 1.5, cfg.Detector.UnclipRatio, 1e-9)
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glyph.yaml")
	content := []byte(`
models_dir: /opt/models
log_level: debug
engine:
  enable_classification: false
  recognition_threshold: 0.7
detector:
  unclip_ratio: 2.0
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := freshLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/models", cfg.ModelsDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Engine.EnableClassification)
	assert.True(t, cfg.Engine.EnableDetection) // default survives
	assert.InDelta(t, 0.7, cfg.Engine.RecognitionThreshold, 1e-6)
	assert.InDelta(t, 2.0, cfg.Detector.UnclipRatio, 1e-9)
}

func TestLoadWithFileMissing(t *testing.T) {
	_, err := freshLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithFileInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glyph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: shouting\n"), 0o644))
	_, err := freshLoader().LoadWithFile(path)
	assert.Error(t, err)
}
