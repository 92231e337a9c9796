package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fakturo/glyph/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the expected model files and whether they are present",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		dir := models.Dir(cfg.ModelsDir)

		fmt.Fprintf(cmd.OutOrStdout(), "Models directory: %s\n\n", dir)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tFILE\tPRESENT\tDESCRIPTION")
		for _, info := range models.List() {
			present := "no"
			if models.Exists(cfg.ModelsDir, info.Filename) {
				present = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, info.Filename, present, info.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
