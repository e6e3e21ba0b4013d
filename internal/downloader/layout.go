package downloader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/billmal071/d5s/internal/portal"
)

// Files written into every run directory
const (
	InitialHTMLFile = "initial.html"
	BookMetaFile    = "book_meta.json"
	ManifestFile    = "complete.json"
	AssetsFile      = "assets.json"
)

// RunDir returns {root}/{book_id}/{timestamp}
func RunDir(root, bookID, timestamp string) string {
	return filepath.Join(root, bookID, timestamp)
}

// PagePath returns the path of page p inside dir
func PagePath(dir string, page int) string {
	return filepath.Join(dir, strconv.Itoa(page)+".svg")
}

// AssetFileName returns {kind}_{page}_{asset}.png
func AssetFileName(a portal.PageAsset) string {
	return fmt.Sprintf("%s_%d_%d.png", a.Kind, a.PageNumber, a.AssetNumber)
}

// ThumbnailFileName returns thumb_{page}.jpg
func ThumbnailFileName(page int) string {
	return fmt.Sprintf("thumb_%d.jpg", page)
}

// WriteJSON writes v as indented JSON
func WriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadJSON decodes the JSON file at path into v
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// ReadManifest loads complete.json from a run directory
func ReadManifest(dir string) (*portal.DownloadManifest, error) {
	var m portal.DownloadManifest
	if err := ReadJSON(filepath.Join(dir, ManifestFile), &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ReadAssets loads assets.json from a run directory
func ReadAssets(dir string) ([]portal.PageAsset, error) {
	var assets []portal.PageAsset
	if err := ReadJSON(filepath.Join(dir, AssetsFile), &assets); err != nil {
		return nil, err
	}
	return assets, nil
}
