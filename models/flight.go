// models/flight.go
package models

import (
	"strings"
	"time"
)

// FlightCode is the route classification computed upstream by the scorer.
type FlightCode string

const (
	CodeTriangle FlightCode = "tri"
	CodeFAI      FlightCode = "fai"
	CodeFree     FlightCode = "free"
)

// ParseFlightCode normalises a stored code. The scorer output is stored
// JSON-encoded, so values may arrive wrapped in quotes (`"tri"`).
// Anything unrecognised is a free flight.
func ParseFlightCode(s string) FlightCode {
	switch FlightCode(strings.ToLower(strings.Trim(strings.TrimSpace(s), `"`))) {
	case CodeTriangle:
		return CodeTriangle
	case CodeFAI:
		return CodeFAI
	default:
		return CodeFree
	}
}

// ScoreDivisor converts a score into kilometres: free flights count 1000
// points per km, triangles 1200 and FAI triangles 1400.
func (c FlightCode) ScoreDivisor() float64 {
	switch c {
	case CodeTriangle:
		return 1200
	case CodeFAI:
		return 1400
	default:
		return 1000
	}
}

// IsTriangle reports whether the flight closes a triangle route.
func (c FlightCode) IsTriangle() bool {
	return c == CodeTriangle || c == CodeFAI
}

// FlightSummary is one entry of the flight history list.
type FlightSummary struct {
	FlightID int64      `db:"flight_id" json:"flight_id"`
	Date     string     `db:"date" json:"date"`         // YYYY-MM-DD
	Duration int        `db:"duration" json:"duration"` // minutes
	Score    float64    `db:"score" json:"score"`
	Code     FlightCode `db:"code" json:"code"`
}

// Distance is the scored distance in km.
func (s FlightSummary) Distance() float64 {
	return s.Score / s.Code.ScoreDivisor()
}

// FlightDetail is a full flight record, fetched on selection.
type FlightDetail struct {
	FlightSummary
	Track   string `db:"track" json:"track"`     // GeoJSON feature collection
	Profile string `db:"profile" json:"profile"` // delimited telemetry blob
}

// FlightRecord is what the importer writes: a detail plus its dedup hash.
type FlightRecord struct {
	FlightDetail
	Hash      string    `db:"hash" json:"hash"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FlightStatistics aggregates the logbook.
type FlightStatistics struct {
	Flights       int             `json:"flights"`
	TotalDuration int             `json:"total_duration"` // minutes
	TotalDistance float64         `json:"total_distance"` // km
	Best          []FlightSummary `json:"best"`
}
