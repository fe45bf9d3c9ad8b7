// database/flight_store.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/gewnthar/logbook/models"
)

var ErrFlightNotFound = errors.New("flight not found")

// ListFlightSummaries returns every flight, oldest first.
func ListFlightSummaries(ctx context.Context) ([]models.FlightSummary, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, DATE_FORMAT(flight_date, '%Y-%m-%d'), duration, score, code
		FROM flights
		ORDER BY flight_date, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}
	defer rows.Close()

	var summaries []models.FlightSummary
	for rows.Next() {
		var s models.FlightSummary
		var code string
		if err := rows.Scan(&s.FlightID, &s.Date, &s.Duration, &s.Score, &code); err != nil {
			log.Printf("ERROR Database: Failed to scan flight summary row: %v", err)
			continue
		}
		s.Code = models.ParseFlightCode(code)
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flight rows: %w", err)
	}
	return summaries, nil
}

// GetFlightDetail loads one flight with its track and profile.
func GetFlightDetail(ctx context.Context, flightID int64) (*models.FlightDetail, error) {
	if DB == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}

	var d models.FlightDetail
	var code string
	var track, profile []byte
	err := DB.QueryRowContext(ctx, `
		SELECT id, DATE_FORMAT(flight_date, '%Y-%m-%d'), duration, score, code, track, profile
		FROM flights
		WHERE id = ?
	`, flightID).Scan(&d.FlightID, &d.Date, &d.Duration, &d.Score, &code, &track, &profile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrFlightNotFound, flightID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query flight %d: %w", flightID, err)
	}
	d.Code = models.ParseFlightCode(code)

	if d.Track, err = DecompressBlob(track); err != nil {
		return nil, fmt.Errorf("failed to read track of flight %d: %w", flightID, err)
	}
	if d.Profile, err = DecompressBlob(profile); err != nil {
		return nil, fmt.Errorf("failed to read profile of flight %d: %w", flightID, err)
	}
	return &d, nil
}

// DeleteFlight removes one flight. An unknown id wraps ErrFlightNotFound.
func DeleteFlight(ctx context.Context, flightID int64) error {
	if DB == nil {
		return fmt.Errorf("database connection is not initialized")
	}

	res, err := DB.ExecContext(ctx, "DELETE FROM flights WHERE id = ?", flightID)
	if err != nil {
		return fmt.Errorf("failed to delete flight %d: %w", flightID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deletion of flight %d: %w", flightID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrFlightNotFound, flightID)
	}
	log.Printf("Database: deleted flight %d", flightID)
	return nil
}

// SaveFlights upserts flights keyed by hash and returns how many rows were
// written.
func SaveFlights(ctx context.Context, records []models.FlightRecord) (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database connection is not initialized")
	}
	if len(records) == 0 {
		log.Println("No flights provided to save.")
		return 0, nil
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for flights: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO flights (flight_date, duration, score, code, hash, track, profile)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			flight_date = VALUES(flight_date),
			duration = VALUES(duration),
			score = VALUES(score),
			code = VALUES(code),
			track = VALUES(track),
			profile = VALUES(profile)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare flight insert statement: %w", err)
	}
	defer stmt.Close()

	savedCount := 0
	for _, r := range records {
		track, err := CompressBlob(r.Track)
		if err != nil {
			return 0, err
		}
		profile, err := CompressBlob(r.Profile)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, r.Date, r.Duration, r.Score, string(r.Code), r.Hash, track, profile); err != nil {
			log.Printf("ERROR Database: Failed to insert flight %s: %v", r.Hash, err)
			return 0, fmt.Errorf("failed to insert flight %s: %w", r.Hash, err)
		}
		savedCount++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction for flights: %w", err)
	}

	log.Printf("Database: Successfully saved/updated %d flights.", savedCount)
	return savedCount, nil
}
