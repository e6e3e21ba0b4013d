package downloader

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/stretchr/testify/require"
)

func newTestClient(srv *httptest.Server) *portal.Client {
	return portal.NewClient(portal.NewSession(), portal.Options{
		BaseURL:   srv.URL,
		AssetHost: srv.URL,
		Timeout:   5 * time.Second,
	})
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
