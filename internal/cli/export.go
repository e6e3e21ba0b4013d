package cli

import (
	"fmt"

	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/export"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [run-id]",
	Short: "Build an EPUB from a downloaded book",
	Long: `Package a completed run as an EPUB with one section per page and
every page image embedded. Without an ID a completed run is picked
interactively.

Examples:
  d5s export 4
  d5s export 4 -o ~/Books/maths.epub`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringP("output", "o", "", "output file (default: {title}.epub in the run directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")

	run, err := runFromArgs(args, db.StatusCompleted, "Export which run?")
	if err != nil {
		return err
	}
	if run.Status != db.StatusCompleted {
		return fmt.Errorf("run is not completed (status: %s)", run.Status)
	}

	fmt.Printf("Exporting: %s\n", run.Title)
	path, err := export.EPUB(run.Dir, output)
	if err != nil {
		return fmt.Errorf("failed to export run %d: %w", run.ID, err)
	}

	Successf("Written: %s", path)
	return nil
}
