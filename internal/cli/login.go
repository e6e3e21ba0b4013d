package cli

import (
	"fmt"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [credentials.json]",
	Short: "Log in and store the session",
	Long: `Log in to the portal and store the resulting session cookies.

Credentials are read from a JSON file with "email" and "password" keys,
or from the D5S_EMAIL and D5S_PASSWORD environment variables (a .env file
in the working directory is honoured).

Examples:
  d5s login creds.json
  D5S_EMAIL=me@example.com D5S_PASSWORD=secret d5s login`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}
	creds, err := loadCredentials(path)
	if err != nil {
		return err
	}

	session := portal.NewSession()
	client := portal.NewClient(session, portalOptions())

	if err := saveSnapshot(session, "empty"); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}

	ctx := cmd.Context()
	if err := client.PrimeSession(ctx); err != nil {
		return fmt.Errorf("failed to open portal: %w", err)
	}
	if err := saveSnapshot(session, "init-get"); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}

	fmt.Printf("Logging in as %s...\n", creds.Email)
	if err := client.SubmitLogin(ctx, creds); err != nil {
		return fmt.Errorf("failed to log in: %w", err)
	}
	if err := saveSnapshot(session, "login"); err != nil {
		return fmt.Errorf("failed to write session snapshot: %w", err)
	}

	if err := saveSession(session); err != nil {
		return err
	}

	Successf("Logged in, %d cookie(s) stored", len(session.Entries()))
	return nil
}
