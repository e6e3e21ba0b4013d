package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/billmal071/d5s/internal/portal"
)

// RunStatus represents the state of a book download run
type RunStatus string

const (
	StatusPending     RunStatus = "pending"
	StatusDownloading RunStatus = "downloading"
	StatusCompleted   RunStatus = "completed"
	StatusFailed      RunStatus = "failed"
)

// Run is one pipeline execution for one catalog entry
type Run struct {
	ID           int64
	BookID       string
	Code         string
	Title        string
	Timestamp    string
	Dir          string
	Version      string
	Pages        int
	Assets       int
	Status       RunStatus
	ErrorMessage string
	EntryJSON    string
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// Entry decodes the catalog entry the run was started from
func (r *Run) Entry() (portal.CatalogEntry, error) {
	var entry portal.CatalogEntry
	if err := json.Unmarshal([]byte(r.EntryJSON), &entry); err != nil {
		return entry, fmt.Errorf("failed to decode catalog entry of run %d: %w", r.ID, err)
	}
	return entry, nil
}

var runColumns = []string{
	"id", "book_id", "code", "title", "timestamp", "dir", "version",
	"pages", "assets", "status", "error_message", "entry_json", "verified",
	"created_at", "updated_at", "completed_at",
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	r := &Run{}
	var code, version, errMsg sql.NullString
	err := row.Scan(
		&r.ID, &r.BookID, &code, &r.Title, &r.Timestamp, &r.Dir, &version,
		&r.Pages, &r.Assets, &r.Status, &errMsg, &r.EntryJSON, &r.Verified,
		&r.CreatedAt, &r.UpdatedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Code = code.String
	r.Version = version.String
	r.ErrorMessage = errMsg.String
	return r, nil
}

// CreateRun records a new pending run for entry
func CreateRun(entry portal.CatalogEntry, dir, timestamp string) (*Run, error) {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	result, err := builder().Insert("runs").
		Columns("book_id", "code", "title", "timestamp", "dir", "status", "entry_json").
		Values(entry.ID, entry.Code, entry.Title, timestamp, dir, StatusPending, string(entryJSON)).
		Exec()
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return GetRun(id)
}

// GetRun retrieves a run by ID
func GetRun(id int64) (*Run, error) {
	row := builder().Select(runColumns...).From("runs").Where(sq.Eq{"id": id}).QueryRow()
	return scanRun(row)
}

// ListRuns retrieves runs filtered by status. Without a status, completed
// runs are hidden unless showAll is set.
func ListRuns(status RunStatus, showAll bool) ([]*Run, error) {
	query := builder().Select(runColumns...).From("runs").OrderBy("updated_at DESC", "id DESC")
	switch {
	case status != "":
		query = query.Where(sq.Eq{"status": status})
	case !showAll:
		query = query.Where(sq.NotEq{"status": StatusCompleted})
	}

	rows, err := query.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// UpdateStatus updates the run status
func UpdateStatus(id int64, status RunStatus, errMsg string) error {
	_, err := builder().Update("runs").
		Set("status", status).
		Set("error_message", errMsg).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}).
		Exec()
	return err
}

// MarkDownloading records the probed reader version and page count
func MarkDownloading(id int64, version string, pages int) error {
	_, err := builder().Update("runs").
		Set("status", StatusDownloading).
		Set("version", version).
		Set("pages", pages).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}).
		Exec()
	return err
}

// MarkCompleted marks a run as completed
func MarkCompleted(id int64, assets int) error {
	_, err := builder().Update("runs").
		Set("status", StatusCompleted).
		Set("assets", assets).
		Set("error_message", nil).
		Set("completed_at", sq.Expr("CURRENT_TIMESTAMP")).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}).
		Exec()
	return err
}

// MarkVerified records the outcome of a verify pass
func MarkVerified(id int64, verified bool) error {
	_, err := builder().Update("runs").
		Set("verified", verified).
		Set("updated_at", sq.Expr("CURRENT_TIMESTAMP")).
		Where(sq.Eq{"id": id}).
		Exec()
	return err
}

// DeleteRun deletes a run record
func DeleteRun(id int64) error {
	_, err := builder().Delete("runs").Where(sq.Eq{"id": id}).Exec()
	return err
}
