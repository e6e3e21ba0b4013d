package cli

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIndexes(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr string
	}{
		{name: "single", args: []string{"0"}, want: []int{0}},
		{name: "keeps order", args: []string{"3", "1", "2"}, want: []int{3, 1, 2}},
		{name: "drops repeats", args: []string{"1", "1", "2"}, want: []int{1, 2}},
		{name: "not a number", args: []string{"x"}, wantErr: "invalid index: x"},
		{name: "negative", args: []string{"-1"}, wantErr: "out of range"},
		{name: "too large", args: []string{"4"}, wantErr: "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIndexes(tt.args, 4)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRunID(t *testing.T) {
	id, err := parseRunID("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := parseRunID(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"email":"me@example.com","password":"pw"}`), 0600))

		creds, err := loadCredentials(path)
		require.NoError(t, err)
		assert.Equal(t, portal.Credentials{Email: "me@example.com", Password: "pw"}, creds)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv("D5S_EMAIL", "env@example.com")
		t.Setenv("D5S_PASSWORD", "secret")

		creds, err := loadCredentials("")
		require.NoError(t, err)
		assert.Equal(t, "env@example.com", creds.Email)
		assert.Equal(t, "secret", creds.Password)
	})

	t.Run("missing password", func(t *testing.T) {
		t.Setenv("D5S_EMAIL", "env@example.com")
		t.Setenv("D5S_PASSWORD", "")

		_, err := loadCredentials("")
		assert.Error(t, err)
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "creds.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"email":`), 0600))

		_, err := loadCredentials(path)
		assert.Error(t, err)
	})
}

func TestLatestCatalog(t *testing.T) {
	dir := t.TempDir()

	_, err := latestCatalog(dir)
	assert.Error(t, err)

	older := filepath.Join(dir, "2026-01-02_10-00-00"+catalogSuffix)
	newer := filepath.Join(dir, "2026-03-01_09-00-00"+catalogSuffix)
	require.NoError(t, os.WriteFile(older, []byte(`[]`), 0644))
	require.NoError(t, os.WriteFile(newer, []byte(`[{"id":"5432","title":"Mathematik 2"}]`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.json"), []byte(`{}`), 0644))

	latest, err := latestCatalog(dir)
	require.NoError(t, err)
	assert.Equal(t, newer, latest)

	entries, err := readCatalog(latest)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "5432", entries[0].ID)
	assert.Equal(t, "Mathematik 2", entries[0].Title)
}

func TestReadCatalogMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x"+catalogSuffix)
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := readCatalog(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse catalog "+path)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestSessionAccount(t *testing.T) {
	u, _ := url.Parse("https://digi4school.at/")

	a := portal.NewSession()
	a.SetCookies(u, []*http.Cookie{{Name: "digi4s", Value: "one"}})
	b := portal.NewSession()
	b.SetCookies(u, []*http.Cookie{{Name: "digi4s", Value: "two"}})

	assert.Equal(t, "digi4s=one;", sessionAccount(a))
	assert.NotEqual(t, sessionAccount(a), sessionAccount(b))
	assert.Empty(t, sessionAccount(portal.NewSession()))
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.svg"), make([]byte, 100), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "a.png"), make([]byte, 28), 0644))

	assert.Equal(t, int64(128), dirSize(dir))
	assert.Zero(t, dirSize(filepath.Join(dir, "missing")))
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "Short", truncateTitle("Short", 10))
	assert.Equal(t, "Mathem...", truncateTitle("Mathematik für Schüler", 9))
	assert.Equal(t, "Größe ...", truncateTitle("Größe und Gewicht", 9))
}
