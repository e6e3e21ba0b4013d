package downloader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/billmal071/d5s/internal/db"
)

// VerifyReport lists what is wrong with a run directory
type VerifyReport struct {
	Dir      string
	Pages    int
	Assets   int
	Problems []string
}

// OK reports whether the run directory is complete
func (r *VerifyReport) OK() bool {
	return len(r.Problems) == 0
}

func (r *VerifyReport) addf(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// VerifyRun checks that every page named by the manifest exists, is
// non-empty and is an svg document, and that every listed asset exists.
func VerifyRun(dir string) (*VerifyReport, error) {
	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	report := &VerifyReport{Dir: dir}
	if manifest.BookMetadata != nil {
		report.Pages = manifest.BookMetadata.PageCount()
	}

	for page := 1; page <= report.Pages; page++ {
		data, err := os.ReadFile(PagePath(dir, page))
		switch {
		case errors.Is(err, os.ErrNotExist):
			report.addf("page %d missing", page)
		case err != nil:
			report.addf("page %d unreadable: %v", page, err)
		case len(data) == 0:
			report.addf("page %d is empty", page)
		case !bytes.Contains(data, []byte("<svg")):
			report.addf("page %d is not an svg document", page)
		}
	}

	assets, err := ReadAssets(dir)
	if err != nil {
		report.addf("asset list unreadable: %v", err)
		return report, nil
	}
	report.Assets = len(assets)
	for _, a := range assets {
		name := AssetFileName(a)
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			report.addf("asset %s missing", name)
		}
	}

	return report, nil
}

// VerifyAndMark verifies a run and records the outcome
func VerifyAndMark(run *db.Run) (*VerifyReport, error) {
	report, err := VerifyRun(run.Dir)
	if err != nil {
		if markErr := db.MarkVerified(run.ID, false); markErr != nil {
			return nil, fmt.Errorf("verification failed (%v) and failed to update status: %w", err, markErr)
		}
		return nil, err
	}

	if err := db.MarkVerified(run.ID, report.OK()); err != nil {
		return report, fmt.Errorf("verification finished but failed to update status: %w", err)
	}
	return report, nil
}
