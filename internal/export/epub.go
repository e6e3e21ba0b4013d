package export

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/billmal071/d5s/internal/downloader"
	"github.com/billmal071/d5s/internal/portal"
	"github.com/go-shiori/go-epub"
)

// prologPattern matches the xml declaration and doctype a page may start with
var prologPattern = regexp.MustCompile(`(?s)^\s*(<\?xml[^>]*\?>\s*)?(<!DOCTYPE[^>]*>\s*)?`)

// EPUB compiles a finished run directory into an EPUB with one section
// per page. Page image references are rewritten to the embedded assets.
// When output is empty the file is written next to the pages.
func EPUB(dir, output string) (string, error) {
	manifest, err := downloader.ReadManifest(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read manifest: %w", err)
	}
	meta := manifest.BookMetadata
	if meta == nil || meta.PageCount() == 0 {
		return "", fmt.Errorf("run in %s has no pages", dir)
	}

	assets, err := downloader.ReadAssets(dir)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read asset list: %w", err)
	}

	e, err := epub.NewEpub(meta.Title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPub: %w", err)
	}
	e.SetAuthor(meta.Publisher)
	e.SetDescription(fmt.Sprintf("SB-Nr. %s, %s", meta.SerialNumber, meta.PublisherWeb))
	e.SetLang("de")

	// page number -> reference in the page -> path inside the EPUB
	embedded := make(map[int]map[string]string)
	added := make(map[string]bool)
	for _, a := range assets {
		// a page may reference the same image more than once
		name := downloader.AssetFileName(a)
		if added[name] {
			continue
		}
		added[name] = true

		internal, err := e.AddImage(filepath.Join(dir, name), name)
		if err != nil {
			return "", fmt.Errorf("failed to add image %s: %w", name, err)
		}
		if embedded[a.PageNumber] == nil {
			embedded[a.PageNumber] = make(map[string]string)
		}
		embedded[a.PageNumber][relativeRef(a)] = internal
	}

	for page := 1; page <= meta.PageCount(); page++ {
		data, err := os.ReadFile(downloader.PagePath(dir, page))
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", page, err)
		}

		body := fmt.Sprintf("<div class=\"page\">%s</div>\n", rewriteRefs(string(data), embedded[page]))
		if _, err := e.AddSection(body, fmt.Sprintf("Page %d", page), "", ""); err != nil {
			return "", fmt.Errorf("failed to add page %d: %w", page, err)
		}
	}

	if output == "" {
		output = filepath.Join(dir, sanitizeFilename(meta.Title)+".epub")
	}
	if err := e.Write(output); err != nil {
		return "", fmt.Errorf("failed to write EPub: %w", err)
	}
	return output, nil
}

// relativeRef recovers the href used inside the page, e.g. img/12.png
func relativeRef(a portal.PageAsset) string {
	marker := fmt.Sprintf("/%d/%s/", a.PageNumber, a.Kind)
	i := strings.LastIndex(a.URL, marker)
	if i < 0 {
		return ""
	}
	return a.URL[i+len(fmt.Sprintf("/%d/", a.PageNumber)):]
}

// rewriteRefs strips the document prolog and points xlink:href at the
// embedded copies
func rewriteRefs(page string, refs map[string]string) string {
	page = prologPattern.ReplaceAllString(page, "")
	for ref, internal := range refs {
		if ref == "" {
			continue
		}
		page = strings.ReplaceAll(page, `xlink:href="`+ref+`"`, `xlink:href="`+internal+`"`)
	}
	return page
}

// sanitizeFilename removes characters that are invalid in filenames
func sanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := name
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	result = strings.Trim(strings.TrimSpace(result), ".")
	if result == "" {
		return "book"
	}
	return result
}
