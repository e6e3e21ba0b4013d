package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/billmal071/d5s/internal/config"
	"github.com/billmal071/d5s/internal/downloader"
	"github.com/billmal071/d5s/internal/portal"
)

// portalOptions maps the loaded configuration onto client options
func portalOptions() portal.Options {
	cfg := config.Get()
	return portal.Options{
		BaseURL:         cfg.Portal.BaseURL,
		AssetHost:       cfg.Portal.AssetHost,
		LoginPath:       cfg.Portal.LoginPath,
		CatalogPath:     cfg.Portal.CatalogPath,
		UserAgent:       cfg.Network.UserAgent,
		Timeout:         cfg.Network.Timeout,
		MaxFormHops:     cfg.Network.MaxFormHops,
		BrowserFallback: cfg.Network.BrowserFallback,
		Logger:          logger,
	}
}

// downloaderOptions maps the loaded configuration onto pipeline options.
// The session is snapshotted once the reader forms are done.
func downloaderOptions(session *portal.Session) downloader.Options {
	cfg := config.Get()
	return downloader.Options{
		Root:        cfg.Downloads.Path,
		Concurrency: cfg.Downloads.MaxConcurrent,
		Thumbnails:  cfg.Downloads.Thumbnails,
		Retry:       downloader.DefaultRetryConfig(),
		Progress:    os.Stderr,
		Logger:      logger,
		AfterFormDance: func() {
			if err := saveSnapshot(session, "do-book-form-dance"); err != nil {
				logger.Warn("failed to write session snapshot", "error", err)
			}
		},
	}
}

// loadClient restores the stored session and binds a client to it
func loadClient() (*portal.Client, error) {
	session, err := portal.LoadSessionFile(config.GetSessionPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return portal.NewClient(session, portalOptions()), nil
}

// saveSnapshot writes keys/cookies/{timestamp}_{label}.json
func saveSnapshot(session *portal.Session, label string) error {
	name := fmt.Sprintf("%s_%s.json", portal.Timestamp(time.Now()), label)
	path := filepath.Join(config.GetCookiesDir(), name)
	if err := portal.SaveSessionFile(path, session); err != nil {
		return err
	}
	logger.Debug("session snapshot written", "path", path)
	return nil
}

// saveSession replaces the current session.json
func saveSession(session *portal.Session) error {
	if err := portal.SaveSessionFile(config.GetSessionPath(), session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// loadCredentials reads a credentials file, or D5S_EMAIL and D5S_PASSWORD
// when path is empty
func loadCredentials(path string) (portal.Credentials, error) {
	var creds portal.Credentials
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return creds, fmt.Errorf("failed to read credentials: %w", err)
		}
		if err := json.Unmarshal(data, &creds); err != nil {
			return creds, fmt.Errorf("failed to parse credentials %s: %w", path, err)
		}
	} else {
		creds.Email = os.Getenv("D5S_EMAIL")
		creds.Password = os.Getenv("D5S_PASSWORD")
	}

	if creds.Email == "" || creds.Password == "" {
		return creds, errors.New("credentials need both email and password")
	}
	return creds, nil
}
