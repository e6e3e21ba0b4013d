package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Login(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/":
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "init", Path: "/"})
		case r.Method == http.MethodPost && r.URL.Path == "/br/xhr/login":
			if c, err := r.Cookie("PHPSESSID"); err != nil || c.Value != "init" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			r.ParseForm()
			got = r.PostForm
			http.SetCookie(w, &http.Cookie{Name: "digi4s", Value: "auth", Path: "/"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)
	err := client.Login(context.Background(), Credentials{Email: "me@example.com", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", got.Get("email"))
	assert.Equal(t, "secret", got.Get("password"))
	assert.Equal(t, "1", got.Get("indefinite"))

	u, _ := url.Parse(srv.URL)
	names := map[string]string{}
	for _, c := range client.Session().Cookies(u) {
		names[c.Name] = c.Value
	}
	assert.Equal(t, map[string]string{"PHPSESSID": "init", "digi4s": "auth"}, names)
}

func TestClient_LoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	err := newTestClient(t, srv).Login(context.Background(), Credentials{Email: "x", Password: "y"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthRejected)

	var authErr *AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestClient_LoginPrimeFails(t *testing.T) {
	posted := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			posted = true
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := newTestClient(t, srv).Login(context.Background(), Credentials{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetwork)
	assert.NotErrorIs(t, err, ErrAuthRejected)
	assert.False(t, posted)
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(NewSession(), Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	err := client.PrimeSession(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorIs(t, err, ErrNetwork)
}
