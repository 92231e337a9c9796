package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fakturo/glyph/internal/engine"
	"github.com/fakturo/glyph/internal/utils"
)

var imageCmd = &cobra.Command{
	Use:   "image [files...]",
	Short: "Run OCR on one or more image files",
	Long: `Extract text from image files.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  glyph image invoice.png
  glyph image *.jpg --format json
  glyph image scan.png --tables --output result.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runImageCommand,
}

func runImageCommand(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := getConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile, _ := cmd.Flags().GetString("output")
	withTables, _ := cmd.Flags().GetBool("tables")

	eng, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	var out strings.Builder
	for _, path := range args {
		img, err := utils.LoadImage(path)
		if err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}

		result, err := eng.Process(img)
		if err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}

		rendered, err := renderResult(result, format)
		if err != nil {
			return err
		}
		out.WriteString(rendered)

		if withTables {
			tables, err := eng.ProcessTables(img, result)
			if err != nil {
				return fmt.Errorf("table recognition for %s: %w", path, err)
			}
			for _, ts := range tables {
				out.WriteString(ts.ToHTML())
				out.WriteString("\n")
			}
		}
	}

	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(out.String()), 0o644)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out.String())
	return err
}

func renderResult(result *engine.OcrResult, format string) (string, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return result.Text + "\n", nil
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(result)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format %q", format)
	}
}

func init() {
	rootCmd.AddCommand(imageCmd)

	imageCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
	imageCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	imageCmd.Flags().Bool("tables", false, "recognize table structure in detected table regions")

	_ = viper.BindPFlag("output.format", imageCmd.Flags().Lookup("format"))
}
