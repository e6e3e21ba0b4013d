package portal

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookieEchoServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/set":
			http.SetCookie(w, &http.Cookie{Name: "a", Value: "1", Path: "/"})
			http.SetCookie(w, &http.Cookie{Name: "b", Value: "2", Path: "/"})
		case "/drop":
			http.SetCookie(w, &http.Cookie{Name: "b", Value: "", Path: "/", MaxAge: -1})
		case "/echo":
			var pairs []string
			for _, c := range r.Cookies() {
				pairs = append(pairs, c.Name+"="+c.Value)
			}
			sort.Strings(pairs)
			io.WriteString(w, strings.Join(pairs, ";"))
		}
	}))
}

func getBody(t *testing.T, c *Client, rawURL string) string {
	t.Helper()
	resp, err := c.Get(context.Background(), rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestSession_PersistRestoreRoundTrip(t *testing.T) {
	srv := cookieEchoServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	getBody(t, client, srv.URL+"/set")
	require.Equal(t, "a=1;b=2", getBody(t, client, srv.URL+"/echo"))

	data, err := client.Session().Persist()
	require.NoError(t, err)

	restored, err := RestoreSession(data)
	require.NoError(t, err)

	fresh := NewClient(restored, Options{BaseURL: srv.URL, AssetHost: srv.URL})
	assert.Equal(t, "a=1;b=2", getBody(t, fresh, srv.URL+"/echo"))
}

func TestSession_DeletedCookieNotPersisted(t *testing.T) {
	srv := cookieEchoServer()
	defer srv.Close()

	client := newTestClient(t, srv)
	getBody(t, client, srv.URL+"/set")
	getBody(t, client, srv.URL+"/drop")

	entries := client.Session().Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0].Name)

	data, err := client.Session().Persist()
	require.NoError(t, err)
	restored, err := RestoreSession(data)
	require.NoError(t, err)

	fresh := NewClient(restored, Options{BaseURL: srv.URL, AssetHost: srv.URL})
	assert.Equal(t, "a=1", getBody(t, fresh, srv.URL+"/echo"))
}

func TestSession_MaxAgeBecomesExpiry(t *testing.T) {
	s := NewSession()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return now }

	u, _ := url.Parse("https://digi4school.at/br/xhr/login")
	s.SetCookies(u, []*http.Cookie{{Name: "digi4s", Value: "x", Path: "/", MaxAge: 3600}})

	entries := s.Entries()
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Expires)
	assert.Equal(t, now.Add(time.Hour), *entries[0].Expires)
	assert.Equal(t, "https://digi4school.at/br/xhr/login", entries[0].URL)
}

func cookieValues(s *Session, rawURL string) []string {
	u, _ := url.Parse(rawURL)
	var out []string
	for _, c := range s.Cookies(u) {
		out = append(out, c.Name+"="+c.Value)
	}
	return out
}

func roundTrip(t *testing.T, s *Session) *Session {
	t.Helper()
	data, err := s.Persist()
	require.NoError(t, err)
	restored, err := RestoreSession(data)
	require.NoError(t, err)
	return restored
}

func TestSession_DefaultPathCookiesKeptApart(t *testing.T) {
	s := NewSession()
	first, _ := url.Parse("https://digi4school.at/a/b/page")
	second, _ := url.Parse("https://digi4school.at/x/y/page")
	s.SetCookies(first, []*http.Cookie{{Name: "sid", Value: "1"}})
	s.SetCookies(second, []*http.Cookie{{Name: "sid", Value: "2"}})

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "/a/b", entries[0].Path)
	assert.Equal(t, "/x/y", entries[1].Path)

	restored := roundTrip(t, s)
	assert.Equal(t, []string{"sid=1"}, cookieValues(restored, "https://digi4school.at/a/b/other"))
	assert.Equal(t, []string{"sid=2"}, cookieValues(restored, "https://digi4school.at/x/y/other"))
}

func TestSession_DeleteByExplicitPath(t *testing.T) {
	s := NewSession()
	u, _ := url.Parse("https://digi4school.at/a/b/page")
	s.SetCookies(u, []*http.Cookie{{Name: "tok", Value: "v"}})
	s.SetCookies(u, []*http.Cookie{{Name: "tok", Path: "/a/b", MaxAge: -1}})

	assert.Empty(t, cookieValues(s, "https://digi4school.at/a/b/page"))
	assert.Empty(t, s.Entries())

	restored := roundTrip(t, s)
	assert.Empty(t, cookieValues(restored, "https://digi4school.at/a/b/page"))
}

func TestCookiePath(t *testing.T) {
	tests := []struct {
		cookie, request, want string
	}{
		{"/", "/a/b/page", "/"},
		{"/books", "/a/b/page", "/books"},
		{"", "/a/b/page", "/a/b"},
		{"", "/page", "/"},
		{"", "", "/"},
		{"relative", "/a/b/page", "/a/b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cookiePath(tt.cookie, tt.request), "%q from %q", tt.cookie, tt.request)
	}
}

func TestRestoreSession_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", "{cookies"},
		{"wrong shape", `{"cookies": "nope"}`},
		{"missing name", `{"cookies":[{"url":"https://digi4school.at/","value":"1"}]}`},
		{"missing host", `{"cookies":[{"url":"/relative","name":"a","value":"1"}]}`},
		{"bad url", `{"cookies":[{"url":"://bad","name":"a","value":"1"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RestoreSession([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSessionCorrupt)
		})
	}
}

func TestSessionFile(t *testing.T) {
	path := t.TempDir() + "/keys/session.json"

	s := NewSession()
	u, _ := url.Parse("https://digi4school.at/")
	s.SetCookies(u, []*http.Cookie{{Name: "a", Value: "1"}})
	require.NoError(t, SaveSessionFile(path, s))

	loaded, err := LoadSessionFile(path)
	require.NoError(t, err)
	cookies := loaded.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "1", cookies[0].Value)

	_, err = LoadSessionFile(t.TempDir() + "/missing.json")
	assert.Error(t, err)
}
