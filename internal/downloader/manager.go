package downloader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

// Fetcher issues authenticated GET requests. *portal.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Options configures the downloaders and the book pipeline
type Options struct {
	// Root is the downloads directory; runs land in {Root}/{book_id}/{timestamp}
	Root string

	// Concurrency above 1 fetches pages and assets through a bounded pool.
	// At 1 requests are strictly sequential and stop at the first failure.
	Concurrency int

	Thumbnails bool
	Retry      RetryConfig

	// Progress receives progress bars; nil discards them
	Progress io.Writer
	Logger   *slog.Logger

	// AfterFormDance is called once the reader cookies are in the session
	AfterFormDance func()
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.Retry.MaxAttempts < 1 {
		o.Retry.MaxAttempts = 1
	}
	if o.Progress == nil {
		o.Progress = io.Discard
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}

// worker holds what every downloader shares: the fetcher, the retry
// policy and the pool.
type worker struct {
	fetcher Fetcher
	opts    Options
	log     *slog.Logger
}

func newWorker(f Fetcher, opts Options) worker {
	opts = opts.withDefaults()
	return worker{fetcher: f, opts: opts, log: opts.Logger}
}

// fetchFile GETs file.URL and writes the body verbatim to dest. Failures
// come back as copies of file with the status or cause filled in.
func (w worker) fetchFile(ctx context.Context, file portal.DownloadError, dest string) error {
	fail := func(status int, err error) error {
		e := file
		e.StatusCode = status
		e.Err = err
		return &e
	}

	return RetryOperation(ctx, w.opts.Retry, func() (int, error) {
		resp, err := w.fetcher.Get(ctx, file.URL)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		if !portal.IsSuccess(resp.StatusCode) {
			io.Copy(io.Discard, resp.Body)
			return resp.StatusCode, fail(resp.StatusCode, nil)
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			// the client timeout can fire while the body streams in
			netErr := &portal.NetworkError{Method: http.MethodGet, URL: file.URL, Timeout: portal.IsTimeout(err), Err: err}
			return 0, fail(0, netErr)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", dest, err)
		}

		w.log.Debug("downloaded", "kind", file.Kind, "page", file.Index, "asset", file.Asset, "bytes", len(data))
		return resp.StatusCode, nil
	})
}

// run executes job for 0..n-1, sequentially or through the bounded pool
func (w worker) run(ctx context.Context, n int, bar *progressbar.ProgressBar, job func(ctx context.Context, i int) error) error {
	if w.opts.Concurrency <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := job(ctx, i); err != nil {
				return err
			}
			bar.Add(1)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := job(gctx, i); err != nil {
				return err
			}
			bar.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func newProgressBar(total int, description string, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
