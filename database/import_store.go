// database/import_store.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/gewnthar/logbook/models"
)

// StartImportBatch records the start of an import run and returns its id.
func StartImportBatch(ctx context.Context, source string, startedAt time.Time) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database connection is not initialized")
	}
	res, err := DB.ExecContext(ctx,
		`INSERT INTO import_batches (source, started_at) VALUES (?, ?)`,
		source, startedAt,
	)
	if err != nil {
		log.Printf("ERROR Database: Failed to log import batch for '%s': %v", source, err)
		return 0, fmt.Errorf("failed to log import batch for %s: %w", source, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read import batch id: %w", err)
	}
	return id, nil
}

// FinishImportBatch stores the outcome of an import run.
func FinishImportBatch(ctx context.Context, batch models.ImportBatch) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	var finished sql.NullTime
	if batch.FinishedAt != nil {
		finished = sql.NullTime{Time: *batch.FinishedAt, Valid: true}
	}
	var errMsg sql.NullString
	if batch.ErrorMessage != "" {
		errMsg = sql.NullString{String: batch.ErrorMessage, Valid: true}
	}

	_, err := DB.ExecContext(ctx, `
		UPDATE import_batches
		SET rows_read = ?, rows_saved = ?, finished_at = ?, error_message = ?
		WHERE id = ?
	`, batch.RowsRead, batch.RowsSaved, finished, errMsg, batch.ID)
	if err != nil {
		log.Printf("ERROR Database: Failed to update import batch %d: %v", batch.ID, err)
		return fmt.Errorf("failed to update import batch %d: %w", batch.ID, err)
	}

	log.Printf("Database: Import batch %d finished. Read: %d, Saved: %d\n", batch.ID, batch.RowsRead, batch.RowsSaved)
	return nil
}

// GetImportBatches returns the most recent import runs, newest first.
func GetImportBatches(ctx context.Context, limit int) ([]models.ImportBatch, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, source, rows_read, rows_saved, started_at, finished_at, error_message
		FROM import_batches
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import_batches: %w", err)
	}
	defer rows.Close()

	var batches []models.ImportBatch
	for rows.Next() {
		var b models.ImportBatch
		var finished sql.NullTime
		var errMsg sql.NullString
		if err := rows.Scan(&b.ID, &b.Source, &b.RowsRead, &b.RowsSaved, &b.StartedAt, &finished, &errMsg); err != nil {
			log.Printf("ERROR Database: Failed to scan import_batches row: %v", err)
			continue
		}
		if finished.Valid {
			b.FinishedAt = &finished.Time
		}
		if errMsg.Valid {
			b.ErrorMessage = errMsg.String
		}
		batches = append(batches, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import_batches rows: %w", err)
	}
	return batches, nil
}
