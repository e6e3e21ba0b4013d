package downloader

import (
	"context"
	"fmt"

	"github.com/billmal071/d5s/internal/portal"
)

// PageDownloader fetches a book's vector pages
type PageDownloader struct {
	worker
}

// NewPageDownloader creates a page downloader
func NewPageDownloader(f Fetcher, opts Options) *PageDownloader {
	return &PageDownloader{worker: newWorker(f, opts)}
}

// Download fetches pages 1..count from {readerBase}{p}/{p}.svg and writes
// each body verbatim to {dir}/{p}.svg.
func (d *PageDownloader) Download(ctx context.Context, readerBase string, count int, dir string) error {
	if count == 0 {
		return nil
	}

	bar := newProgressBar(count, "Pages", d.opts.Progress)
	return d.run(ctx, count, bar, func(ctx context.Context, i int) error {
		page := i + 1
		url := fmt.Sprintf("%s%d/%d.svg", readerBase, page, page)
		return d.fetchFile(ctx, portal.DownloadError{Kind: "page", URL: url, Index: page}, PagePath(dir, page))
	})
}
