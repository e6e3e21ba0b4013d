package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/billmal071/d5s/internal/portal"
)

// Portal is the part of the portal client the pipeline drives
type Portal interface {
	Fetcher
	FormDance(ctx context.Context, entryURL string) (*portal.FormResult, error)
	ProbeVersion(ctx context.Context, bookID string) portal.ReaderVersion
	ResolveURL(ref string) string
	AssetBase(bookID string) string
	ReaderBase(bookID string) string
}

// Recorder tracks a run's status in the history store
type Recorder interface {
	Start(entry portal.CatalogEntry, dir, timestamp string) (int64, error)
	Downloading(id int64, version portal.ReaderVersion, pages int) error
	Completed(id int64, assets int) error
	Failed(id int64, err error) error
}

type nopRecorder struct{}

func (nopRecorder) Start(portal.CatalogEntry, string, string) (int64, error) { return 0, nil }
func (nopRecorder) Downloading(int64, portal.ReaderVersion, int) error       { return nil }
func (nopRecorder) Completed(int64, int) error                               { return nil }
func (nopRecorder) Failed(int64, error) error                                { return nil }

// Result describes a finished book
type Result struct {
	RunID    int64
	Dir      string
	Manifest *portal.DownloadManifest
	Assets   []portal.PageAsset
}

// Pipeline downloads one book end to end
type Pipeline struct {
	client   Portal
	recorder Recorder
	opts     Options
	log      *slog.Logger
	now      func() time.Time

	pages      *PageDownloader
	assets     *AssetDownloader
	thumbnails *ThumbnailDownloader
}

// NewPipeline creates a pipeline. A nil recorder keeps no history.
func NewPipeline(client Portal, recorder Recorder, opts Options) *Pipeline {
	opts = opts.withDefaults()
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Pipeline{
		client:     client,
		recorder:   recorder,
		opts:       opts,
		log:        opts.Logger,
		now:        time.Now,
		pages:      NewPageDownloader(client, opts),
		assets:     NewAssetDownloader(client, opts),
		thumbnails: NewThumbnailDownloader(client, opts),
	}
}

// Run downloads entry into a fresh timestamped directory. Any stage
// failure ends the run and is returned wrapped with the stage name.
func (p *Pipeline) Run(ctx context.Context, entry portal.CatalogEntry) (*Result, error) {
	timestamp := portal.Timestamp(p.now())
	dir := RunDir(p.opts.Root, entry.ID, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	runID, err := p.recorder.Start(entry, dir, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	log := p.log.With("book", entry.ID, "run", runID)
	fail := func(stage string, err error) (*Result, error) {
		err = fmt.Errorf("failed to %s: %w", stage, err)
		if recErr := p.recorder.Failed(runID, err); recErr != nil {
			log.Warn("could not record failure", "error", recErr)
		}
		return nil, err
	}

	// Exchange the catalog link for the reader page
	form, err := p.client.FormDance(ctx, p.client.ResolveURL(entry.URL))
	if err != nil {
		return fail("navigate reader forms", err)
	}
	log.Debug("form dance finished", "hops", form.Hops, "url", form.FinalURL)
	if p.opts.AfterFormDance != nil {
		p.opts.AfterFormDance()
	}
	if err := os.WriteFile(filepath.Join(dir, InitialHTMLFile), []byte(form.Body), 0644); err != nil {
		return fail("write reader page", err)
	}

	meta, err := portal.ExtractMetadata(form.Body)
	if err != nil {
		return fail("extract metadata", err)
	}
	if err := WriteJSON(filepath.Join(dir, BookMetaFile), meta); err != nil {
		return fail("write metadata", err)
	}

	version := p.client.ProbeVersion(ctx, entry.ID)
	manifest := &portal.DownloadManifest{
		Timestamp:    timestamp,
		Version:      version.String(),
		BookMetadata: meta,
		CatalogEntry: entry,
	}
	if err := WriteJSON(filepath.Join(dir, ManifestFile), manifest); err != nil {
		return fail("write manifest", err)
	}

	if err := p.recorder.Downloading(runID, version, meta.PageCount()); err != nil {
		log.Warn("could not record progress", "error", err)
	}
	log.Info("downloading book", "title", meta.Title, "pages", meta.PageCount(), "version", version)

	if err := p.pages.Download(ctx, p.client.ReaderBase(entry.ID), meta.PageCount(), dir); err != nil {
		return fail("download pages", err)
	}

	assets, err := DiscoverAssets(dir, p.client.AssetBase(entry.ID))
	if err != nil {
		return fail("discover assets", err)
	}
	if assets == nil {
		assets = []portal.PageAsset{}
	}
	if err := WriteJSON(filepath.Join(dir, AssetsFile), assets); err != nil {
		return fail("write asset list", err)
	}

	if err := p.assets.Download(ctx, assets, dir); err != nil {
		return fail("download assets", err)
	}

	if p.opts.Thumbnails {
		if err := p.thumbnails.Download(ctx, p.client.AssetBase(entry.ID), meta.PageCount(), dir); err != nil {
			return fail("download thumbnails", err)
		}
	}

	if err := p.recorder.Completed(runID, len(assets)); err != nil {
		log.Warn("could not record completion", "error", err)
	}
	log.Info("book complete", "dir", dir, "assets", len(assets))

	return &Result{RunID: runID, Dir: dir, Manifest: manifest, Assets: assets}, nil
}
