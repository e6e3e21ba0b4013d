package cli

import (
	"fmt"

	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/downloader"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [run-id]",
	Short: "Check a downloaded book for missing or broken files",
	Long: `Check that every page 1..N exists, is non-empty and holds an SVG
document, and that every asset listed in assets.json was downloaded.
Without an ID or flag a completed run is picked interactively.

Examples:
  d5s verify 1          # Verify run #1
  d5s verify --all      # Verify all completed runs
  d5s verify --failed   # Re-verify runs that failed verification
  d5s verify --all --fix`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().Bool("all", false, "verify all completed runs")
	verifyCmd.Flags().Bool("failed", false, "re-verify runs that failed verification")
	verifyCmd.Flags().Bool("fix", false, "download broken books again")
}

func runVerify(cmd *cobra.Command, args []string) error {
	verifyAll, _ := cmd.Flags().GetBool("all")
	verifyFailed, _ := cmd.Flags().GetBool("failed")
	autoFix, _ := cmd.Flags().GetBool("fix")

	var runs []*db.Run

	switch {
	case verifyAll || verifyFailed:
		completed, err := db.ListRuns(db.StatusCompleted, true)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		for _, r := range completed {
			if verifyAll || !r.Verified {
				runs = append(runs, r)
			}
		}
	default:
		run, err := runFromArgs(args, db.StatusCompleted, "Verify which run?")
		if err != nil {
			return err
		}
		if run.Status != db.StatusCompleted {
			return fmt.Errorf("run is not completed (status: %s)", run.Status)
		}
		runs = []*db.Run{run}
	}

	if len(runs) == 0 {
		fmt.Println("No runs to verify")
		return nil
	}

	fmt.Printf("Verifying %d run(s)...\n\n", len(runs))

	verified, broken := 0, 0
	var toFix []*db.Run

	for _, run := range runs {
		fmt.Printf("🔍 [%d] %s\n", run.ID, run.Title)
		fmt.Printf("    Dir: %s\n", run.Dir)

		report, err := downloader.VerifyAndMark(run)
		if err != nil {
			fmt.Printf("    ❌ %v\n\n", err)
			broken++
			toFix = append(toFix, run)
			continue
		}
		if !report.OK() {
			for _, p := range report.Problems {
				fmt.Printf("    ❌ %s\n", p)
			}
			fmt.Println()
			broken++
			toFix = append(toFix, run)
			continue
		}

		fmt.Printf("    ✓ %d pages, %d assets\n\n", report.Pages, report.Assets)
		verified++
	}

	fmt.Println("─────────────────────────")
	fmt.Printf("Verified: %d\n", verified)
	if broken > 0 {
		fmt.Printf("Broken:   %d\n", broken)
	}

	if autoFix && len(toFix) > 0 {
		return fixRuns(cmd, toFix)
	}
	if broken > 0 && !autoFix {
		fmt.Println("\nTip: Use --fix to download broken books again")
	}
	return nil
}

// fixRuns downloads the book of every broken run again
func fixRuns(cmd *cobra.Command, runs []*db.Run) error {
	client, err := loadClient()
	if err != nil {
		return err
	}
	pipeline := downloader.NewPipeline(client, db.RunRecorder{}, downloaderOptions(client.Session()))

	failed := 0
	for _, run := range runs {
		entry, err := run.Entry()
		if err != nil {
			Errorf("[%d] %v", run.ID, err)
			failed++
			continue
		}
		fmt.Printf("\n🔄 Re-downloading [%d] %s\n", run.ID, run.Title)
		if err := downloadBook(cmd, pipeline, entry); err != nil {
			failed++
		}
	}

	if err := saveSession(client.Session()); err != nil {
		logger.Warn("failed to refresh session", "error", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d re-download(s) failed", failed, len(runs))
	}
	return nil
}
