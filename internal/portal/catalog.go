package portal

import (
	"context"
	"errors"
	"net/http"

	"github.com/gocolly/colly/v2"
)

// Catalog fetches the listing page and parses every title on it.
// An empty listing is not an error here; callers that need at least one
// title check for ErrNoBooks themselves.
func (c *Client) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	catalogURL := c.opts.BaseURL + c.opts.CatalogPath

	html, err := c.fetchCatalog(ctx, catalogURL)
	if err != nil {
		var netErr *NetworkError
		if !c.opts.BrowserFallback || !errors.As(err, &netErr) || netErr.StatusCode != 0 {
			return nil, err
		}

		// Transport-level failure: fall back to headless browser
		c.log.Warn("catalog fetch failed, trying headless browser", "error", err)
		html, err = RenderPage(ctx, catalogURL, c.opts.UserAgent, c.session.Entries())
		if err != nil {
			return nil, err
		}
	}

	entries := ParseCatalog(html)
	c.log.Info("crawled catalog", "books", len(entries))
	return entries, nil
}

func (c *Client) fetchCatalog(ctx context.Context, catalogURL string) (string, error) {
	var (
		body      string
		status    int
		visitErr  error
		responded bool
	)

	collector := colly.NewCollector(
		colly.UserAgent(c.opts.UserAgent),
	)
	collector.SetRequestTimeout(c.opts.Timeout)
	collector.SetCookieJar(c.session)
	collector.ParseHTTPErrorResponse = true

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		responded = true
		status = r.StatusCode
		body = string(r.Body)
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			responded = true
			status = r.StatusCode
			return
		}
		visitErr = err
	})

	if err := collector.Visit(catalogURL); err != nil && visitErr == nil && !responded {
		visitErr = err
	}
	collector.Wait()

	if ctx.Err() != nil {
		return "", &NetworkError{Method: http.MethodGet, URL: catalogURL, Timeout: IsTimeout(ctx.Err()), Err: ctx.Err()}
	}
	if visitErr != nil {
		return "", &NetworkError{Method: http.MethodGet, URL: catalogURL, Timeout: IsTimeout(visitErr), Err: visitErr}
	}
	if !IsSuccess(status) {
		return "", &NetworkError{Method: http.MethodGet, URL: catalogURL, StatusCode: status}
	}
	return body, nil
}

// ParseCatalog extracts catalog entries in document order. Duplicate ids
// are passed through untouched.
func ParseCatalog(html string) []CatalogEntry {
	matches := catalogPattern.FindAllStringSubmatch(html, -1)
	entries := make([]CatalogEntry, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, CatalogEntry{
			URL:        m[1],
			Code:       m[2],
			ID:         m[3],
			Visibility: m[4],
			CoverURL:   m[5],
			Title:      m[6],
			Publisher:  m[7],
			ExpiryDate: m[8],
		})
	}
	return entries
}
