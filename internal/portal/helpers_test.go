package portal

import (
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	return NewClient(NewSession(), Options{
		BaseURL:   srv.URL,
		AssetHost: srv.URL,
		Timeout:   5 * time.Second,
	})
}
