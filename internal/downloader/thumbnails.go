package downloader

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/billmal071/d5s/internal/portal"
)

// ThumbnailDownloader fetches the reader's page thumbnails
type ThumbnailDownloader struct {
	worker
}

// NewThumbnailDownloader creates a thumbnail downloader
func NewThumbnailDownloader(f Fetcher, opts Options) *ThumbnailDownloader {
	return &ThumbnailDownloader{worker: newWorker(f, opts)}
}

// Download fetches {assetBase}/thumbnails/{p}.jpg for pages 1..count
func (d *ThumbnailDownloader) Download(ctx context.Context, assetBase string, count int, dir string) error {
	if count == 0 {
		return nil
	}

	bar := newProgressBar(count, "Thumbnails", d.opts.Progress)
	return d.run(ctx, count, bar, func(ctx context.Context, i int) error {
		page := i + 1
		url := fmt.Sprintf("%s/thumbnails/%d.jpg", assetBase, page)
		return d.fetchFile(ctx, portal.DownloadError{Kind: "thumbnail", URL: url, Index: page}, filepath.Join(dir, ThumbnailFileName(page)))
	})
}
