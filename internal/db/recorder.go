package db

import (
	"github.com/billmal071/d5s/internal/portal"
)

// RunRecorder records pipeline progress in the runs table
type RunRecorder struct{}

// Start creates the pending run
func (RunRecorder) Start(entry portal.CatalogEntry, dir, timestamp string) (int64, error) {
	run, err := CreateRun(entry, dir, timestamp)
	if err != nil {
		return 0, err
	}
	return run.ID, nil
}

// Downloading moves the run to downloading
func (RunRecorder) Downloading(id int64, version portal.ReaderVersion, pages int) error {
	return MarkDownloading(id, version.String(), pages)
}

// Completed marks the run completed
func (RunRecorder) Completed(id int64, assets int) error {
	return MarkCompleted(id, assets)
}

// Failed marks the run failed with the error text
func (RunRecorder) Failed(id int64, err error) error {
	return UpdateStatus(id, StatusFailed, err.Error())
}
