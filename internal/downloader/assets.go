package downloader

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/billmal071/d5s/internal/portal"
)

// DiscoverAssets scans the pages in dir for raster references. Pages are
// visited in numeric order; within a page primary images precede shades.
func DiscoverAssets(dir, assetBase string) ([]portal.PageAsset, error) {
	pages, err := listPages(dir)
	if err != nil {
		return nil, err
	}

	var assets []portal.PageAsset
	for _, page := range pages {
		data, err := os.ReadFile(PagePath(dir, page))
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", page, err)
		}

		for _, ref := range portal.FindAssetRefs(string(data)) {
			number, err := assetNumber(ref.Path)
			if err != nil {
				return nil, err
			}
			assets = append(assets, portal.PageAsset{
				URL:         fmt.Sprintf("%s/%d/%s", assetBase, page, ref.Path),
				PageNumber:  page,
				AssetNumber: number,
				Kind:        ref.Kind,
			})
		}
	}
	return assets, nil
}

// listPages returns the numbers of every {n}.svg in dir, ascending
func listPages(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var pages []int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".svg" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(name, ".svg"))
		if err != nil {
			continue
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}

// assetNumber parses the text before the first dot of the last path segment
func assetNumber(ref string) (uint64, error) {
	stem, _, _ := strings.Cut(path.Base(ref), ".")
	n, err := strconv.ParseUint(stem, 10, 64)
	if err != nil {
		return 0, &portal.ParseError{Field: "asset_number", Value: ref, Err: portal.ErrInvalidNumber}
	}
	return n, nil
}

// AssetDownloader fetches discovered page assets
type AssetDownloader struct {
	worker
}

// NewAssetDownloader creates an asset downloader
func NewAssetDownloader(f Fetcher, opts Options) *AssetDownloader {
	return &AssetDownloader{worker: newWorker(f, opts)}
}

// Download fetches every asset in order and writes it to
// {dir}/{kind}_{page}_{asset}.png. Bytes are stored unvalidated.
func (d *AssetDownloader) Download(ctx context.Context, assets []portal.PageAsset, dir string) error {
	if len(assets) == 0 {
		return nil
	}

	bar := newProgressBar(len(assets), "Assets", d.opts.Progress)
	return d.run(ctx, len(assets), bar, func(ctx context.Context, i int) error {
		a := assets[i]
		name := AssetFileName(a)
		file := portal.DownloadError{Kind: "asset", URL: a.URL, Index: a.PageNumber, Asset: name}
		return d.fetchFile(ctx, file, filepath.Join(dir, name))
	})
}
