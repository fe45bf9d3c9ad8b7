// models/meta.go
package models

import "time"

// ImportBatch records one logbook import run.
type ImportBatch struct {
	ID           int64      `db:"id" json:"id"`
	Source       string     `db:"source" json:"source"` // manifest URL or path
	RowsRead     int        `db:"rows_read" json:"rows_read"`
	RowsSaved    int        `db:"rows_saved" json:"rows_saved"`
	StartedAt    time.Time  `db:"started_at" json:"started_at"`
	FinishedAt   *time.Time `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage string     `db:"error_message" json:"error_message,omitempty"`
}

// ManifestRow is one line of a logbook import manifest.
type ManifestRow struct {
	Date        string  `csv:"date"`
	Duration    int     `csv:"duration"`
	Score       float64 `csv:"score"`
	Code        string  `csv:"code"`
	Hash        string  `csv:"hash"`
	TrackFile   string  `csv:"track_file"`
	ProfileFile string  `csv:"profile_file"`
}
