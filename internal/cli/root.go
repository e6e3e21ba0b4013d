package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/billmal071/d5s/internal/config"
	"github.com/billmal071/d5s/internal/db"
	"github.com/billmal071/d5s/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	logger = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   "d5s",
	Short: "Download purchased textbooks from digi4school",
	Long: `d5s logs into digi4school, lists the textbooks on your account and
downloads their pages and embedded images for offline reading.

Examples:
  d5s login creds.json      Log in and store the session
  d5s catalog               List your books
  d5s get 0 3               Download books #0 and #3
  d5s get --select          Pick books interactively
  d5s list -a               Show every download run
  d5s export 4              Build an EPUB from run #4`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Init(cfgFile); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		level := config.Get().Log.Level
		if verbose {
			level = "debug"
		}
		logger = logging.New(level, os.Stderr)

		if err := db.Init(); err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		db.Close()
	},
}

// Execute runs the root command. Ctrl-C cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/d5s/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

// Verbose returns whether verbose mode is enabled
func Verbose() bool {
	return verbose
}

// Printf prints if verbose mode is enabled
func Printf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}

// Errorf prints an error message to stderr
func Errorf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// Successf prints a success message
func Successf(format string, args ...interface{}) {
	fmt.Printf("✓ "+format+"\n", args...)
}
