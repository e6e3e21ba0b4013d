package portal

import (
	"context"
	"io"
	"strings"
)

// ProbeVersion classifies a book's reader by fetching its first page.
// A failed or non-2xx probe counts as legacy and is never returned as an
// error. Both variants currently share the same page URL template.
func (c *Client) ProbeVersion(ctx context.Context, bookID string) ReaderVersion {
	probeURL := c.PageURL(bookID, 1)

	resp, err := c.Get(ctx, probeURL)
	if err != nil {
		c.log.Debug("version probe failed", "url", probeURL, "error", err)
		return VersionLegacy
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		c.log.Debug("version probe got non-success status", "url", probeURL, "status", resp.StatusCode)
		return VersionLegacy
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Debug("version probe body unreadable", "url", probeURL, "error", err)
		return VersionLegacy
	}

	if strings.Contains(string(data), legacyMarker) {
		return VersionLegacy
	}
	return VersionModern
}
