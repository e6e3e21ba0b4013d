package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()

	require.NoError(t, Init(""))
	c := Get()

	assert.Equal(t, "https://digi4school.at", c.Portal.BaseURL)
	assert.Equal(t, "a.digi4school.at", c.Portal.AssetHost)
	assert.Equal(t, "/br/xhr/login", c.Portal.LoginPath)
	assert.Equal(t, "/ebooks", c.Portal.CatalogPath)
	assert.Equal(t, 1, c.Downloads.MaxConcurrent)
	assert.Equal(t, 30*time.Second, c.Network.Timeout)
	assert.Equal(t, 1, c.Network.RetryAttempts)
	assert.Equal(t, 8, c.Network.MaxFormHops)
	assert.True(t, c.Cache.Enabled)
	assert.Equal(t, filepath.Join(home, "d5s", "downloads"), c.Downloads.Path)
}

func TestInitConfigFileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()

	file := filepath.Join(home, "custom.yaml")
	content := "downloads:\n  max_concurrent: 4\nnetwork:\n  max_form_hops: 3\n"
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	t.Setenv("D5S_PORTAL_ASSET_HOST", "assets.example.test")

	require.NoError(t, Init(file))
	c := Get()

	assert.Equal(t, 4, c.Downloads.MaxConcurrent)
	assert.Equal(t, 3, c.Network.MaxFormHops)
	assert.Equal(t, "assets.example.test", c.Portal.AssetHost)
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, "books"), expandPath("~/books"))
	assert.Equal(t, "/abs/books", expandPath("/abs/books"))
}
