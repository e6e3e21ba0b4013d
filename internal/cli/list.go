package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/tui"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List download runs",
	Long: `List download runs and their status.

By default, completed runs are hidden. Use -a/--all to show them.

Examples:
  d5s list                  List unfinished runs
  d5s list -a               List all runs
  d5s list -s failed        List failed runs`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringP("status", "s", "", "filter by status (pending, downloading, completed, failed)")
	listCmd.Flags().BoolP("all", "a", false, "show all runs including completed")
}

func runList(cmd *cobra.Command, args []string) error {
	statusFilter, _ := cmd.Flags().GetString("status")
	showAll, _ := cmd.Flags().GetBool("all")

	var status db.RunStatus
	if statusFilter != "" {
		status = db.RunStatus(strings.ToLower(statusFilter))
	}

	runs, err := db.ListRuns(status, showAll)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if statusFilter != "" {
			fmt.Printf("No runs with status '%s'.\n", statusFilter)
		} else {
			fmt.Println("No unfinished runs.")
		}
		return nil
	}

	fmt.Printf("Runs (%d):\n\n", len(runs))
	for _, r := range runs {
		printRun(r)
	}
	return nil
}

func printRun(r *db.Run) {
	var statusIcon string
	switch r.Status {
	case db.StatusPending:
		statusIcon = "⏳"
	case db.StatusDownloading:
		statusIcon = "⬇️ "
	case db.StatusCompleted:
		statusIcon = "✅"
	case db.StatusFailed:
		statusIcon = "❌"
	default:
		statusIcon = "  "
	}

	fmt.Printf("%s [%d] %s\n", statusIcon, r.ID, truncateTitle(r.Title, 50))

	if r.Pages > 0 {
		fmt.Printf("   Pages: %d, assets: %d", r.Pages, r.Assets)
		if r.Version != "" {
			fmt.Printf(" (%s reader)", r.Version)
		}
		fmt.Println()
	}

	fmt.Printf("   Status: %s", r.Status)
	if r.ErrorMessage != "" {
		fmt.Printf(" - %s", r.ErrorMessage)
	}
	if r.Verified {
		fmt.Print(" (verified)")
	}
	fmt.Println()

	fmt.Printf("   Dir: %s", r.Dir)
	if size := dirSize(r.Dir); size > 0 {
		fmt.Printf(" (%s)", tui.FormatSize(size))
	}
	fmt.Println()

	fmt.Printf("   Book: %s  Started: %s\n", r.BookID, r.Timestamp)
	fmt.Println()
}

// dirSize sums regular file sizes below dir; unreadable entries are skipped
func dirSize(dir string) int64 {
	var total int64
	filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}

// parseRunID parses a run id argument
func parseRunID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid run ID: %s", arg)
	}
	return id, nil
}

// runFromArgs loads the run named in args, or lets the user pick one of the
// runs with the given status
func runFromArgs(args []string, status db.RunStatus, title string) (*db.Run, error) {
	if len(args) == 1 {
		id, err := parseRunID(args[0])
		if err != nil {
			return nil, err
		}
		run, err := db.GetRun(id)
		if err != nil {
			return nil, fmt.Errorf("run not found: %w", err)
		}
		return run, nil
	}

	runs, err := db.ListRuns(status, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no %s runs", status)
	}
	run, err := tui.PickRun(runs, title)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, errors.New("no run selected")
	}
	return run, nil
}
