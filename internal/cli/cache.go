package cli

import (
	"fmt"

	"github.com/billmal071/d5s/internal/config"
	"github.com/billmal071/d5s/internal/db"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the catalog cache",
	Long: `Manage the cached catalog listings.

Examples:
  d5s cache stats    # Show cache statistics
  d5s cache clear    # Clear all cached listings
  d5s cache enable   # Enable caching
  d5s cache disable  # Disable caching`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		total, expired, err := db.GetCacheStats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		cfg := config.Get()

		fmt.Println("Catalog Cache Statistics")
		fmt.Println("─────────────────────────")
		fmt.Printf("Status: %s\n", enabledStatus(cfg.Cache.Enabled))
		fmt.Printf("Cached listings: %d\n", total)
		fmt.Printf("Expired entries: %d\n", expired)
		fmt.Printf("Cache TTL: %v\n", cfg.Cache.TTL)

		if expired > 0 {
			fmt.Println("\nTip: Run 'd5s cache clean' to remove expired entries")
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached listings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.ClearCatalogCache(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		Successf("Cache cleared")
		return nil
	},
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.CleanExpiredCache(); err != nil {
			return fmt.Errorf("failed to clean cache: %w", err)
		}
		Successf("Expired entries removed")
		return nil
	},
}

var cacheEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable catalog caching",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCacheEnabled(true)
	},
}

var cacheDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable catalog caching",
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCacheEnabled(false)
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheEnableCmd)
	cacheCmd.AddCommand(cacheDisableCmd)
}

func setCacheEnabled(enabled bool) error {
	if err := config.Set("cache.enabled", fmt.Sprint(enabled)); err != nil {
		return fmt.Errorf("failed to update cache setting: %w", err)
	}
	Successf("Cache %s", enabledStatus(enabled))
	return nil
}

func enabledStatus(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
