// viewer/state.go
package viewer

import (
	"github.com/gewnthar/logbook/overlay"
	"github.com/gewnthar/logbook/profile"
)

// State is a read-only copy of a session for the API.
type State struct {
	SessionID     string           `json:"session_id"`
	HistoryLoaded bool             `json:"history_loaded"`
	Flights       int              `json:"flights"`
	SelectedID    *int64           `json:"selected_id,omitempty"`
	DisplayedID   *int64           `json:"displayed_id,omitempty"`
	DisplayedDate string           `json:"displayed_date,omitempty"`
	Geometry      profile.Geometry `json:"geometry"`
	Map           overlay.View     `json:"map"`
	Marker        overlay.Marker   `json:"marker"`
	TrackFeatures int              `json:"track_features"`
	Alerts        []string         `json:"alerts"`
}

// State snapshots the session.
func (s *Session) State() (State, error) {
	var st State
	err := s.do(func() {
		st = State{
			SessionID:     s.ID,
			HistoryLoaded: s.tree != nil,
			Geometry:      s.chart.Geometry(),
			Map:           s.overlay.View(),
			Marker:        *s.overlay.Marker(),
			TrackFeatures: len(s.overlay.Features()),
			Alerts:        append([]string(nil), s.alerts...),
		}
		if s.tree != nil {
			st.Flights = s.tree.Len()
			if id, ok := s.tree.SelectedID(); ok {
				st.SelectedID = &id
			}
		}
		if s.loaded != nil {
			id := s.loaded.FlightID
			st.DisplayedID = &id
			st.DisplayedDate = s.loaded.Date
		}
	})
	return st, err
}

// Overlay snapshots the map overlay.
func (s *Session) Overlay() (overlay.Snapshot, error) {
	var snap overlay.Snapshot
	err := s.do(func() { snap = s.overlay.Snapshot() })
	return snap, err
}
