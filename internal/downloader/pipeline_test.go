package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readerPage = `<html><head>
<meta name="title" content="Mathematik 1" />
<meta name="sbnr" content="180123" />
<meta name="firstPage" content="1" />
<meta name="publisher" content="Verlag A" />
<meta name="publisherweb" content="https://verlag-a.example" />
<meta name="publisheradr" content="Wien" />
<meta name="publishertel" content="+43 1" />
<meta name="publishermail" content="office@verlag-a.example" />
</head><body><script>var sizes = [[595,842],[595,842]];</script></body></html>`

type recordedCall struct {
	event string
	value string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) add(event, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{event, value})
}

func (f *fakeRecorder) Start(entry portal.CatalogEntry, dir, timestamp string) (int64, error) {
	f.add("start", entry.ID+"@"+timestamp)
	return 42, nil
}

func (f *fakeRecorder) Downloading(id int64, version portal.ReaderVersion, pages int) error {
	f.add("downloading", fmt.Sprintf("%d %s %d", id, version, pages))
	return nil
}

func (f *fakeRecorder) Completed(id int64, assets int) error {
	f.add("completed", fmt.Sprintf("%d %d", id, assets))
	return nil
}

func (f *fakeRecorder) Failed(id int64, err error) error {
	f.add("failed", err.Error())
	return nil
}

// portalServer plays both the portal and the asset host
func portalServer(t *testing.T, failPage int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ebook/5432":
			io.WriteString(w, `<form action='/lti' method='post'><input name='t' value='1'></form>`)
		case "/lti":
			http.SetCookie(w, &http.Cookie{Name: "reader", Value: "ok", Path: "/"})
			io.WriteString(w, readerPage)
		case "/ebook/5432/1/1.svg":
			io.WriteString(w, `<svg><image xlink:href="img/7.png"/></svg>`)
		case "/ebook/5432/2/2.svg":
			if failPage == 2 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			io.WriteString(w, `<svg><image xlink:href="shade/2.png"/></svg>`)
		case "/ebook/5432/1/img/7.png", "/ebook/5432/2/shade/2.png":
			if c, err := r.Cookie("reader"); err != nil || c.Value != "ok" {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			io.WriteString(w, "png "+r.URL.Path)
		case "/ebook/5432/thumbnails/1.jpg", "/ebook/5432/thumbnails/2.jpg":
			io.WriteString(w, "jpg")
		default:
			t.Logf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

var testEntry = portal.CatalogEntry{
	URL:        "ebook/5432",
	Code:       "ABC-123",
	ID:         "5432",
	Visibility: "bag",
	Title:      "Mathematik 1",
	Publisher:  "Verlag A",
}

func TestPipeline_Run(t *testing.T) {
	srv := portalServer(t, 0)
	defer srv.Close()

	rec := &fakeRecorder{}
	danced := false
	root := t.TempDir()
	p := NewPipeline(newTestClient(srv), rec, Options{
		Root:           root,
		Thumbnails:     true,
		AfterFormDance: func() { danced = true },
	})
	p.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	result, err := p.Run(context.Background(), testEntry)
	require.NoError(t, err)

	dir := filepath.Join(root, "5432", "2026-03-04_05-06-07")
	assert.Equal(t, dir, result.Dir)
	assert.Equal(t, int64(42), result.RunID)
	assert.True(t, danced)

	assert.Equal(t, readerPage, readFile(t, filepath.Join(dir, InitialHTMLFile)))
	assert.Equal(t, `<svg><image xlink:href="img/7.png"/></svg>`, readFile(t, PagePath(dir, 1)))
	assert.Equal(t, "png /ebook/5432/1/img/7.png", readFile(t, filepath.Join(dir, "img_1_7.png")))
	assert.Equal(t, "png /ebook/5432/2/shade/2.png", readFile(t, filepath.Join(dir, "shade_2_2.png")))
	assert.FileExists(t, filepath.Join(dir, "thumb_2.jpg"))

	manifest, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04_05-06-07", manifest.Timestamp)
	assert.Equal(t, "legacy", manifest.Version)
	assert.Equal(t, testEntry, manifest.CatalogEntry)
	assert.Equal(t, "Mathematik 1", manifest.BookMetadata.Title)
	assert.Equal(t, 2, manifest.BookMetadata.PageCount())

	var meta portal.BookMetadata
	require.NoError(t, ReadJSON(filepath.Join(dir, BookMetaFile), &meta))
	assert.Equal(t, "180123", meta.SerialNumber)

	assets, err := ReadAssets(dir)
	require.NoError(t, err)
	assert.Equal(t, result.Assets, assets)
	assert.Len(t, assets, 2)

	report, err := VerifyRun(dir)
	require.NoError(t, err)
	assert.True(t, report.OK(), report.Problems)

	assert.Equal(t, []recordedCall{
		{"start", "5432@2026-03-04_05-06-07"},
		{"downloading", "42 legacy 2"},
		{"completed", "42 2"},
	}, rec.calls)
}

func TestPipeline_RunFailure(t *testing.T) {
	srv := portalServer(t, 2)
	defer srv.Close()

	rec := &fakeRecorder{}
	p := NewPipeline(newTestClient(srv), rec, Options{Root: t.TempDir()})

	_, err := p.Run(context.Background(), testEntry)
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrHTTPStatus)
	assert.Contains(t, err.Error(), "failed to download pages")

	require.Len(t, rec.calls, 3)
	assert.Equal(t, "failed", rec.calls[2].event)
	assert.Equal(t, err.Error(), rec.calls[2].value)
}

func TestPipeline_RunBadMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>no meta</html>")
	}))
	defer srv.Close()

	p := NewPipeline(newTestClient(srv), nil, Options{Root: t.TempDir()})
	_, err := p.Run(context.Background(), testEntry)
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrMissingField)
	assert.Contains(t, err.Error(), "failed to extract metadata")
}
