package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fakturo/glyph/internal/batch"
)

var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Run OCR over many files or directories",
	Long: `Process multiple image files or whole directories sequentially and
collect the results into a single report.

Examples:
  glyph batch scans/
  glyph batch scans/ --recursive --pattern 'invoice_*.png'
  glyph batch a.png b.png --format json --output report.json
  glyph batch scans/ --skip-errors`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE:         runBatchCommand,
}

func runBatchCommand(cmd *cobra.Command, args []string) error {
	cfg := getConfig()

	format := cfg.Output.Format
	if cmd.Flags().Changed("format") {
		format, _ = cmd.Flags().GetString("format")
	}
	outputFile, _ := cmd.Flags().GetString("output")

	batchConfig := batch.Config{
		Recursive:     cfg.Batch.Recursive,
		SkipOnError:   cfg.Batch.SkipOnError,
		TableAnalysis: cfg.Batch.TableAnalysis,
	}
	if cfg.Batch.Pattern != "" {
		batchConfig.IncludePatterns = []string{cfg.Batch.Pattern}
	}
	if cmd.Flags().Changed("pattern") {
		pattern, _ := cmd.Flags().GetString("pattern")
		batchConfig.IncludePatterns = []string{pattern}
	}
	if exclude, _ := cmd.Flags().GetStringSlice("exclude"); len(exclude) > 0 {
		batchConfig.ExcludePatterns = exclude
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("building engine: %w", err)
	}

	result, err := batch.Process(eng, args, batchConfig)
	if err != nil {
		return err
	}

	if outputFile == "" && cfg.Batch.OutputDir != "" {
		if err := os.MkdirAll(cfg.Batch.OutputDir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
		outputFile = filepath.Join(cfg.Batch.OutputDir, "results."+formatExtension(format))
	}

	return result.Save(format, outputFile)
}

func formatExtension(format string) string {
	switch format {
	case "json":
		return "json"
	case "yaml":
		return "yaml"
	default:
		return "txt"
	}
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	batchCmd.Flags().String("pattern", "", "glob pattern for files to include (matched against the base name)")
	batchCmd.Flags().StringSlice("exclude", nil, "glob patterns for files to exclude")
	batchCmd.Flags().Bool("skip-errors", false, "continue after per-file failures")
	batchCmd.Flags().Bool("tables", false, "recognize table structure in detected table regions")
	batchCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
	batchCmd.Flags().StringP("output", "o", "", "write the report to file instead of stdout")

	_ = viper.BindPFlag("batch.recursive", batchCmd.Flags().Lookup("recursive"))
	_ = viper.BindPFlag("batch.skip_on_error", batchCmd.Flags().Lookup("skip-errors"))
	_ = viper.BindPFlag("batch.table_analysis", batchCmd.Flags().Lookup("tables"))
}
