package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options configures a portal Client
type Options struct {
	BaseURL     string
	AssetHost   string
	LoginPath   string
	CatalogPath string
	UserAgent   string
	Timeout     time.Duration
	MaxFormHops int

	// BrowserFallback renders the catalog in headless Chrome when the
	// plain HTTP fetch fails at the transport level.
	BrowserFallback bool

	Logger *slog.Logger
}

// DefaultMaxFormHops bounds the form dance
const DefaultMaxFormHops = 8

// Client issues every portal request through one shared Session
type Client struct {
	opts    Options
	session *Session
	http    *http.Client
	log     *slog.Logger
}

// NewClient creates a client bound to session
func NewClient(session *Session, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://digi4school.at"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.AssetHost == "" {
		opts.AssetHost = "a.digi4school.at"
	}
	if opts.LoginPath == "" {
		opts.LoginPath = "/br/xhr/login"
	}
	if opts.CatalogPath == "" {
		opts.CatalogPath = "/ebooks"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxFormHops <= 0 {
		opts.MaxFormHops = DefaultMaxFormHops
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		opts:    opts,
		session: session,
		http: &http.Client{
			Jar:     session,
			Timeout: opts.Timeout,
		},
		log: log,
	}
}

// Session returns the session shared by every request
func (c *Client) Session() *Session {
	return c.session
}

// BaseURL returns the portal base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.opts.BaseURL
}

// ResolveURL joins a relative catalog url onto the portal base
func (c *Client) ResolveURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return c.opts.BaseURL + "/" + strings.TrimLeft(ref, "/")
}

// assetOrigin returns the scheme and host serving pages and assets
func (c *Client) assetOrigin() string {
	host := strings.TrimRight(c.opts.AssetHost, "/")
	if strings.Contains(host, "://") {
		return host
	}
	return "https://" + host
}

// AssetBase returns https://{asset_host}/ebook/{id}
func (c *Client) AssetBase(bookID string) string {
	return c.assetOrigin() + "/ebook/" + bookID
}

// ReaderBase returns the page URL prefix, https://{asset_host}/ebook/{id}/
func (c *Client) ReaderBase(bookID string) string {
	return c.AssetBase(bookID) + "/"
}

// PageURL returns the URL of one vector page
func (c *Client) PageURL(bookID string, page int) string {
	return fmt.Sprintf("%s%d/%d.svg", c.ReaderBase(bookID), page, page)
}

// ThumbnailURL returns the URL of one page thumbnail
func (c *Client) ThumbnailURL(bookID string, page int) string {
	return fmt.Sprintf("%s/thumbnails/%d.jpg", c.AssetBase(bookID), page)
}

// Get issues an authenticated GET. Transport failures come back as
// *NetworkError; the status code is left for the caller to judge.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, nil)
}

func (c *Client) do(ctx context.Context, method, rawURL string, form url.Values) (*http.Response, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	c.log.Debug("request", "method", method, "url", rawURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: rawURL, Timeout: IsTimeout(err), Err: err}
	}
	return resp, nil
}

// fetchText performs a request and requires a 2xx answer
func (c *Client) fetchText(ctx context.Context, method, rawURL string, form url.Values) (string, *url.URL, error) {
	resp, err := c.do(ctx, method, rawURL, form)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	if !IsSuccess(resp.StatusCode) {
		io.Copy(io.Discard, resp.Body)
		return "", nil, &NetworkError{Method: method, URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, &NetworkError{Method: method, URL: rawURL, Timeout: IsTimeout(err), Err: err}
	}
	return string(data), resp.Request.URL, nil
}

// IsSuccess reports whether code is 2xx
func IsSuccess(code int) bool {
	return code >= 200 && code < 300
}

// IsTimeout reports whether err is a deadline or network timeout
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
