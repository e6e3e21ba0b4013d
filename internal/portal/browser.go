package portal

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// silentLogger discards all chromedp log output
var silentLogger = log.New(io.Discard, "", 0)

// RenderPage loads pageURL in headless Chrome with the given session
// cookies installed and returns the rendered HTML.
func RenderPage(ctx context.Context, pageURL, userAgent string, cookies []SessionCookie) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(silentLogger.Printf),
		chromedp.WithErrorf(silentLogger.Printf),
	)
	defer browserCancel()

	browserCtx, timeoutCancel := context.WithTimeout(browserCtx, 60*time.Second)
	defer timeoutCancel()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return installCookies(ctx, cookies)
		}),
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", fmt.Errorf("browser page load failed: %w", err)
	}

	return htmlContent, nil
}

// installCookies copies session cookies into the browser's cookie store
func installCookies(ctx context.Context, cookies []SessionCookie) error {
	for _, c := range cookies {
		domain := c.Domain
		if domain == "" {
			u, err := url.Parse(c.URL)
			if err != nil {
				return err
			}
			domain = u.Hostname()
		}
		path := c.Path
		if path == "" {
			path = "/"
		}

		err := network.SetCookie(c.Name, c.Value).
			WithDomain(domain).
			WithPath(path).
			WithSecure(c.Secure).
			WithHTTPOnly(c.HTTPOnly).
			Do(ctx)
		if err != nil {
			return fmt.Errorf("failed to install cookie %s: %w", c.Name, err)
		}
	}
	return nil
}
