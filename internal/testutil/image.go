// Package testutil generates synthetic page images for tests that need real
// files on disk, such as batch discovery and the CLI commands.
package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fakturo/glyph/internal/utils"
)

// PageConfig describes a synthetic page image.
type PageConfig struct {
	Width      int
	Height     int
	Lines      []string
	Background color.Color
	Foreground color.Color
}

// DefaultPageConfig returns a small white page with one line of text.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Width:      320,
		Height:     240,
		Lines:      []string{"Faktura VAT 2024/01"},
		Background: color.White,
		Foreground: color.Black,
	}
}

// RenderPage draws the configured lines of text centered on a solid page.
func RenderPage(config PageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, config.Width, config.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{config.Background}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{config.Foreground},
		Face: face,
	}

	lineHeight := face.Metrics().Height.Ceil()
	startY := (config.Height - len(config.Lines)*lineHeight) / 2
	for i, line := range config.Lines {
		textWidth := font.MeasureString(face, line).Ceil()
		x := (config.Width - textWidth) / 2
		y := startY + (i+1)*lineHeight
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return img
}

// WritePage renders a page and saves it as PNG into dir, returning its path.
func WritePage(t *testing.T, dir, name string, config PageConfig) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, utils.SaveImage(RenderPage(config), path))
	return path
}
