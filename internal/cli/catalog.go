package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/billmal071/d5s/internal/config"
	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/downloader"
	"github.com/billmal071/d5s/internal/portal"
	"github.com/spf13/cobra"
)

const catalogSuffix = "_books.json"

var catalogCmd = &cobra.Command{
	Use:     "catalog",
	Aliases: []string{"crawl-books"},
	Short:   "List the books on your account",
	Long: `Fetch the catalog page and list every purchased book.

The listing is cached for cache.ttl and written to the meta directory
as {timestamp}_books.json. The index printed before each title is what
'd5s get' expects.

Examples:
  d5s catalog
  d5s catalog --refresh`,
	Args: cobra.NoArgs,
	RunE: runCatalog,
}

var infoCmd = &cobra.Command{
	Use:     "info [catalog.json]",
	Aliases: []string{"crawl-info"},
	Short:   "Print a stored catalog listing",
	Long: `Print the titles of a stored catalog listing without contacting the portal.
Defaults to the newest listing in the meta directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInfo,
}

func init() {
	catalogCmd.Flags().Bool("refresh", false, "ignore the cached listing")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	refresh, _ := cmd.Flags().GetBool("refresh")

	client, err := loadClient()
	if err != nil {
		return err
	}

	entries, err := fetchCatalog(cmd, client, refresh)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No books found on this account.")
		return nil
	}

	printCatalog(entries)
	return nil
}

// fetchCatalog returns the account's listing, from cache when allowed.
// A fresh crawl is written to the meta directory.
func fetchCatalog(cmd *cobra.Command, client *portal.Client, refresh bool) ([]portal.CatalogEntry, error) {
	cfg := config.Get()
	key := db.GenerateCacheKey(client.BaseURL()+cfg.Portal.CatalogPath, sessionAccount(client.Session()))

	if cfg.Cache.Enabled && !refresh {
		cached, err := db.GetCachedCatalog(key)
		if err != nil {
			logger.Warn("catalog cache unavailable", "error", err)
		} else if cached != nil {
			Printf("Using cached catalog from %s\n", cached.CreatedAt.Format(time.RFC3339))
			return cached.Entries, nil
		}
	}

	entries, err := client.Catalog(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to crawl catalog: %w", err)
	}

	path, err := writeCatalog(entries)
	if err != nil {
		return nil, err
	}
	Printf("Catalog written to %s\n", path)

	if cfg.Cache.Enabled {
		if err := db.SaveCachedCatalog(key, entries, cfg.Cache.TTL); err != nil {
			logger.Warn("failed to cache catalog", "error", err)
		}
	}

	if err := saveSession(client.Session()); err != nil {
		logger.Warn("failed to refresh session", "error", err)
	}
	return entries, nil
}

// sessionAccount identifies the logged in account by its cookies
func sessionAccount(session *portal.Session) string {
	var b strings.Builder
	for _, c := range session.Entries() {
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
		b.WriteByte(';')
	}
	return b.String()
}

func writeCatalog(entries []portal.CatalogEntry) (string, error) {
	path := filepath.Join(config.GetMetaDir(), portal.Timestamp(time.Now())+catalogSuffix)
	if err := downloader.WriteJSON(path, entries); err != nil {
		return "", fmt.Errorf("failed to write catalog: %w", err)
	}
	return path, nil
}

// latestCatalog finds the newest {timestamp}_books.json in dir
func latestCatalog(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+catalogSuffix))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no catalog in %s, run 'd5s catalog' first", dir)
	}
	// timestamps sort lexically
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func readCatalog(path string) ([]portal.CatalogEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var entries []portal.CatalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return entries, nil
}

func printCatalog(entries []portal.CatalogEntry) {
	for i, e := range entries {
		fmt.Printf("%d: %s\n", i, e.Title)
		if verbose {
			fmt.Printf("   %s | %s | expires %s\n", e.Publisher, e.Code, e.ExpiryDate)
		}
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		latest, err := latestCatalog(config.GetMetaDir())
		if err != nil {
			return err
		}
		path = latest
	}

	entries, err := readCatalog(path)
	if err != nil {
		return err
	}
	Printf("Catalog: %s\n", path)
	if len(entries) == 0 {
		fmt.Println("Catalog is empty.")
		return nil
	}
	printCatalog(entries)
	return nil
}
