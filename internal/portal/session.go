package portal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// SessionCookie is the persisted form of one cookie
type SessionCookie struct {
	URL      string     `json:"url"`
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain,omitempty"`
	Path     string     `json:"path,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Secure   bool       `json:"secure,omitempty"`
	HTTPOnly bool       `json:"http_only,omitempty"`
}

type sessionDocument struct {
	Cookies []SessionCookie `json:"cookies"`
}

type cookieKey struct {
	domain string
	path   string
	name   string
}

// Session owns the cookie jar shared by every request of a run.
// It implements http.CookieJar; SetCookies is the only mutation path.
type Session struct {
	mu      sync.RWMutex
	jar     *cookiejar.Jar
	records map[cookieKey]SessionCookie
	now     func() time.Time
}

// NewSession creates an empty session
func NewSession() *Session {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &Session{
		jar:     jar,
		records: make(map[cookieKey]SessionCookie),
		now:     time.Now,
	}
}

// RestoreSession rebuilds a session from a snapshot produced by Persist
func RestoreSession(data []byte) (*Session, error) {
	var doc sessionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &SessionError{Err: err}
	}

	s := NewSession()
	for i, c := range doc.Cookies {
		if c.Name == "" {
			return nil, &SessionError{Err: fmt.Errorf("cookie %d has no name", i)}
		}
		u, err := url.Parse(c.URL)
		if err != nil {
			return nil, &SessionError{Err: fmt.Errorf("cookie %q: %w", c.Name, err)}
		}
		if u.Host == "" {
			return nil, &SessionError{Err: fmt.Errorf("cookie %q: url %q has no host", c.Name, c.URL)}
		}

		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
		if c.Expires != nil {
			hc.Expires = *c.Expires
		}
		s.SetCookies(u, []*http.Cookie{hc})
	}

	return s, nil
}

// Cookies returns the cookies to send with a request to u
func (s *Session) Cookies(u *url.URL) []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jar.Cookies(u)
}

// SetCookies stores cookies received in a response from u
func (s *Session) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(u, cookies)

	now := s.now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}).String()
	for _, c := range cookies {
		path := cookiePath(c.Path, u.Path)
		key := cookieKey{
			domain: strings.TrimPrefix(strings.ToLower(c.Domain), "."),
			path:   path,
			name:   c.Name,
		}
		if key.domain == "" {
			key.domain = u.Hostname()
		}

		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(now)) {
			delete(s.records, key)
			continue
		}

		rec := SessionCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     path,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if !expires.IsZero() {
			e := expires.UTC()
			rec.Expires = &e
		}
		s.records[key] = rec
	}
}

// cookiePath is the path the jar files a cookie under: the cookie's own
// path when absolute, otherwise the directory of the request path.
func cookiePath(cookie, request string) string {
	if cookie != "" && cookie[0] == '/' {
		return cookie
	}
	if request == "" || request[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(request, "/")
	if i == 0 {
		return "/"
	}
	return request[:i]
}

// Entries returns a point-in-time copy of every live cookie
func (s *Session) Entries() []SessionCookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entriesLocked()
}

func (s *Session) entriesLocked() []SessionCookie {
	now := s.now()
	out := make([]SessionCookie, 0, len(s.records))
	for _, c := range s.records {
		if c.Expires != nil && !c.Expires.After(now) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].URL != out[j].URL {
			return out[i].URL < out[j].URL
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Persist serialises the session. No mutation can interleave with the snapshot.
func (s *Session) Persist() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(sessionDocument{Cookies: s.entriesLocked()}, "", "  ")
}

// LoadSessionFile restores a session snapshot from disk
func LoadSessionFile(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no session at %s, run 'd5s login' first: %w", path, err)
		}
		return nil, err
	}
	return RestoreSession(data)
}

// SaveSessionFile writes a session snapshot to disk
func SaveSessionFile(path string, s *Session) error {
	data, err := s.Persist()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
