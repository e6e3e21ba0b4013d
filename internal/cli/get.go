package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/billmal071/d5s/internal/config"
	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/downloader"
	"github.com/billmal071/d5s/internal/notify"
	"github.com/billmal071/d5s/internal/portal"
	"github.com/billmal071/d5s/internal/tui"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:     "get [index...]",
	Aliases: []string{"get-book"},
	Short:   "Download books by catalog index",
	Long: `Download one or more books. Indexes refer to the newest catalog
listing (see 'd5s info'); when none exists the catalog is crawled first.

Each book lands in {downloads.path}/{book id}/{timestamp}/. A failing
book is reported and the remaining books still run.

Examples:
  d5s get 0              Download the first book
  d5s get 1 4 7          Download three books
  d5s get --select       Choose books interactively`,
	RunE: runGet,
}

func init() {
	getCmd.Flags().Bool("select", false, "choose books in an interactive list")
	getCmd.Flags().String("catalog", "", "catalog listing to pick from (default: newest)")
}

func runGet(cmd *cobra.Command, args []string) error {
	interactive, _ := cmd.Flags().GetBool("select")
	catalogFile, _ := cmd.Flags().GetString("catalog")

	if len(args) == 0 && !interactive {
		return errors.New("provide at least one index or use --select")
	}

	client, err := loadClient()
	if err != nil {
		return err
	}

	entries, err := resolveCatalog(cmd, client, catalogFile)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return portal.ErrNoBooks
	}

	var indexes []int
	if interactive {
		indexes, err = tui.RunSelector(entries)
		if err != nil {
			return err
		}
		if len(indexes) == 0 {
			fmt.Println("Nothing selected.")
			return nil
		}
	} else {
		indexes, err = parseIndexes(args, len(entries))
		if err != nil {
			return err
		}
	}

	pipeline := downloader.NewPipeline(client, db.RunRecorder{}, downloaderOptions(client.Session()))

	completed, failed := 0, 0
	for _, i := range indexes {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		entry := entries[i]
		fmt.Printf("[%d] %s\n", i, entry.Title)

		if err := downloadBook(cmd, pipeline, entry); err != nil {
			failed++
			continue
		}
		completed++
	}

	if err := saveSession(client.Session()); err != nil {
		logger.Warn("failed to refresh session", "error", err)
	}

	if len(indexes) > 1 {
		fmt.Printf("\n%d completed, %d failed\n", completed, failed)
		notify.BatchComplete(completed, failed)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d book(s) failed", failed, len(indexes))
	}
	return nil
}

// downloadBook runs one book through the pipeline and reports the outcome
func downloadBook(cmd *cobra.Command, pipeline *downloader.Pipeline, entry portal.CatalogEntry) error {
	result, err := pipeline.Run(cmd.Context(), entry)
	if err != nil {
		Errorf("%s: %v", entry.Title, err)
		notify.BookFailed(entry.Title, err.Error())
		return err
	}

	Successf("%s: %d pages, %d assets in %s",
		entry.Title, result.Manifest.BookMetadata.PageCount(), len(result.Assets), result.Dir)
	notify.BookComplete(entry.Title, result.Dir)
	return nil
}

// resolveCatalog reads the given or newest listing, crawling when there is none
func resolveCatalog(cmd *cobra.Command, client *portal.Client, path string) ([]portal.CatalogEntry, error) {
	if path != "" {
		return readCatalog(path)
	}
	latest, err := latestCatalog(config.GetMetaDir())
	if err == nil {
		return readCatalog(latest)
	}
	Printf("No stored catalog, crawling\n")
	return fetchCatalog(cmd, client, false)
}

// parseIndexes validates catalog indexes, keeping their order and dropping repeats
func parseIndexes(args []string, count int) ([]int, error) {
	seen := make(map[int]bool, len(args))
	indexes := make([]int, 0, len(args))
	for _, arg := range args {
		i, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid index: %s", arg)
		}
		if i < 0 || i >= count {
			return nil, fmt.Errorf("index %d out of range (catalog has %d books)", i, count)
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		indexes = append(indexes, i)
	}
	return indexes, nil
}
