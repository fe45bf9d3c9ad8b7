// importer/manifest.go
package importer

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/gewnthar/logbook/models"
	"github.com/gewnthar/logbook/telemetry"
	"github.com/jszwec/csvutil"
)

// ParseManifest decodes a logbook manifest. The first line is the header
// date,duration,score,code,hash,track_file,profile_file.
func ParseManifest(reader io.Reader) ([]models.ManifestRow, error) {
	var rows []models.ManifestRow

	decoder, err := csvutil.NewDecoder(csv.NewReader(reader))
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV decoder for manifest: %w", err)
	}
	if err := decoder.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode manifest CSV data: %w", err)
	}

	log.Printf("Importer: Successfully parsed %d manifest rows.\n", len(rows))
	return rows, nil
}

// RowError ties a rejected manifest row to its line.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("manifest line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// BuildRecords loads the track and profile files named by each row from
// blobDir. Rows that cannot be loaded are skipped and reported.
func BuildRecords(rows []models.ManifestRow, blobDir string) ([]models.FlightRecord, []RowError) {
	var records []models.FlightRecord
	var rejected []RowError

	for i, row := range rows {
		line := i + 2 // header is line 1
		rec, err := buildRecord(row, blobDir)
		if err != nil {
			log.Printf("WARN Importer: skipping manifest line %d: %v", line, err)
			rejected = append(rejected, RowError{Line: line, Err: err})
			continue
		}
		records = append(records, rec)
	}
	return records, rejected
}

func buildRecord(row models.ManifestRow, blobDir string) (models.FlightRecord, error) {
	var rec models.FlightRecord

	if _, err := time.Parse("2006-01-02", row.Date); err != nil {
		return rec, fmt.Errorf("invalid date %q: %w", row.Date, err)
	}
	if row.Duration < 0 {
		return rec, fmt.Errorf("negative duration %d", row.Duration)
	}

	track, err := readBlob(blobDir, row.TrackFile)
	if err != nil {
		return rec, fmt.Errorf("failed to read track file: %w", err)
	}
	profile, err := readBlob(blobDir, row.ProfileFile)
	if err != nil {
		return rec, fmt.Errorf("failed to read profile file: %w", err)
	}
	if _, err := telemetry.Parse(string(profile), telemetry.LayoutAuto); err != nil {
		return rec, err
	}

	rec.FlightSummary = models.FlightSummary{
		Date:     row.Date,
		Duration: row.Duration,
		Score:    row.Score,
		Code:     models.ParseFlightCode(row.Code),
	}
	rec.Track = string(track)
	rec.Profile = string(profile)
	rec.Hash = row.Hash
	if rec.Hash == "" {
		rec.Hash = ContentHash(rec.Track, rec.Profile)
	}
	return rec, nil
}

func readBlob(dir, name string) ([]byte, error) {
	p, err := localName(dir, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// ContentHash identifies a flight by its track and profile.
func ContentHash(track, profile string) string {
	h := sha256.New()
	io.WriteString(h, track)
	h.Write([]byte{0})
	io.WriteString(h, profile)
	return hex.EncodeToString(h.Sum(nil))
}
