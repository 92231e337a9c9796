package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/glyph/internal/engine"
)

// executeRoot runs the shared root command with the given args. Cobra leaves
// parsed flag values on the command between runs, so the help and version
// flags are reset first.
func executeRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	for _, name := range []string{"help", "version"} {
		if f := rootCmd.Flags().Lookup(name); f != nil {
			require.NoError(t, f.Value.Set("false"))
			f.Changed = false
		}
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "glyph", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	output, err := executeRoot(t, "--help")
	require.NoError(t, err)

	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "image")
	assert.Contains(t, output, "batch")
	assert.Contains(t, output, "models")
}

func TestRootCommandVersion(t *testing.T) {
	output, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "dev")
}

func TestRootCommandVersionAfterHelp(t *testing.T) {
	_, err := executeRoot(t, "--help")
	require.NoError(t, err)

	output, err := executeRoot(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "dev")
	assert.NotContains(t, output, "Available Commands:")
}

func TestVersionCommand(t *testing.T) {
	output, err := executeRoot(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "glyph dev")
}

func TestModelsCommand(t *testing.T) {
	output, err := executeRoot(t, "models", "--models-dir", t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, output, "det.onnx")
	assert.Contains(t, output, "latin_rec.onnx")
	assert.Contains(t, output, "no")
}

func TestImageCommandNoArgs(t *testing.T) {
	_, err := executeRoot(t, "image")
	assert.ErrorContains(t, err, "no input files provided")
}

func TestRenderResultFormats(t *testing.T) {
	result := &engine.OcrResult{Text: "Faktura VAT", ImageWidth: 100, ImageHeight: 50}

	text, err := renderResult(result, "text")
	require.NoError(t, err)
	assert.Equal(t, "Faktura VAT\n", text)

	jsonOut, err := renderResult(result, "json")
	require.NoError(t, err)
	assert.Contains(t, jsonOut, `"text": "Faktura VAT"`)

	yamlOut, err := renderResult(result, "yaml")
	require.NoError(t, err)
	assert.Contains(t, yamlOut, "text: Faktura VAT")

	_, err = renderResult(result, "csv")
	assert.ErrorContains(t, err, "unsupported output format")
}
