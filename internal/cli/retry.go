package cli

import (
	"fmt"

	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/downloader"
	"github.com/spf13/cobra"
)

var retryCmd = &cobra.Command{
	Use:   "retry <run-id>",
	Short: "Download a failed run again",
	Long: `Run the pipeline again for the book of an earlier run, using the
catalog entry stored with it. The new attempt gets its own directory and
run ID; the old run is left as it was.

Examples:
  d5s retry 3          Retry failed run #3
  d5s retry 3 --force  Download run #3's book again even if it completed`,
	Args: cobra.ExactArgs(1),
	RunE: runRetry,
}

func init() {
	retryCmd.Flags().Bool("force", false, "retry even if the run completed")
}

func runRetry(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}
	run, err := db.GetRun(id)
	if err != nil {
		return fmt.Errorf("run not found: %w", err)
	}
	if run.Status == db.StatusCompleted && !force {
		fmt.Printf("Run #%d already completed (%s). Use --force to download it again.\n", run.ID, run.Dir)
		return nil
	}

	entry, err := run.Entry()
	if err != nil {
		return fmt.Errorf("failed to read stored catalog entry: %w", err)
	}

	client, err := loadClient()
	if err != nil {
		return err
	}

	fmt.Printf("Retrying: %s\n", run.Title)
	pipeline := downloader.NewPipeline(client, db.RunRecorder{}, downloaderOptions(client.Session()))
	err = downloadBook(cmd, pipeline, entry)

	if saveErr := saveSession(client.Session()); saveErr != nil {
		logger.Warn("failed to refresh session", "error", saveErr)
	}
	return err
}
