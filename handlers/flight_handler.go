// handlers/flight_handler.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gewnthar/logbook/database"
	"github.com/gewnthar/logbook/models"
	"github.com/gewnthar/logbook/overlay"
	"github.com/gewnthar/logbook/profile"
	"github.com/gewnthar/logbook/services"
	"github.com/gewnthar/logbook/telemetry"
	"github.com/gewnthar/logbook/viewer"
)

// FlightHandler serves the flight list, flight details and their exports
// from a flight source.
type FlightHandler struct {
	source   viewer.FlightSource
	viewport profile.Viewport
	location *time.Location
	mapCfg   overlay.Config
}

func NewFlightHandler(source viewer.FlightSource, vp profile.Viewport, loc *time.Location, mapCfg overlay.Config) *FlightHandler {
	return &FlightHandler{source: source, viewport: vp, location: loc, mapCfg: mapCfg}
}

// Register adds the flight routes to mux.
func (h *FlightHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/flights", h.ListFlights)
	mux.HandleFunc("GET /api/flights/{id}", h.GetFlight)
	mux.HandleFunc("GET /api/flights/{id}/profile.svg", h.ProfileSVG)
	mux.HandleFunc("GET /api/flights/{id}/profile.png", h.ProfilePNG)
	mux.HandleFunc("GET /api/flights/{id}/charts", h.ChartsPage)
	mux.HandleFunc("GET /api/flights/{id}/overlay", h.Overlay)
	mux.HandleFunc("GET /api/stats", h.Stats)
}

// ListFlights handles GET /api/flights.
func (h *FlightHandler) ListFlights(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.source.ListSummaries(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list flights: %v", err))
		return
	}
	if summaries == nil {
		summaries = []models.FlightSummary{}
	}
	respondWithJSON(w, http.StatusOK, summaries)
}

// GetFlight handles GET /api/flights/{id}.
func (h *FlightHandler) GetFlight(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.detail(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, detail)
}

// ProfileSVG handles GET /api/flights/{id}/profile.svg?width=&height=.
// An unreadable profile still yields the empty grid.
func (h *FlightHandler) ProfileSVG(w http.ResponseWriter, r *http.Request) {
	vp, err := h.viewportFrom(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	detail, ok := h.detail(w, r)
	if !ok {
		return
	}

	c := profile.New(vp, h.location)
	if _, err := c.Render(detail.Profile, vp); err != nil {
		log.Printf("WARN Handler: flight %d profile: %v", detail.FlightID, err)
	}
	var buf bytes.Buffer
	if err := c.WriteSVG(&buf); err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

// ProfilePNG handles GET /api/flights/{id}/profile.png.
func (h *FlightHandler) ProfilePNG(w http.ResponseWriter, r *http.Request) {
	c, ok := h.chart(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := c.WritePNG(&buf); err != nil {
		respondWithError(w, exportStatus(err), fmt.Sprintf("Failed to render profile: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ChartsPage handles GET /api/flights/{id}/charts.
func (h *FlightHandler) ChartsPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.chart(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := c.WriteChartsPage(&buf, "Flight "+r.PathValue("id")); err != nil {
		respondWithError(w, exportStatus(err), fmt.Sprintf("Failed to render charts: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// Overlay handles GET /api/flights/{id}/overlay: styled features and the
// fitted map view.
func (h *FlightHandler) Overlay(w http.ResponseWriter, r *http.Request) {
	detail, ok := h.detail(w, r)
	if !ok {
		return
	}
	ov := overlay.New(h.mapCfg)
	if err := ov.Load(detail.Track); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Failed to read track of flight %d: %v", detail.FlightID, err))
		return
	}
	respondWithJSON(w, http.StatusOK, ov.Snapshot())
}

// Stats handles GET /api/stats.
func (h *FlightHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.source.ListSummaries(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list flights: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, services.Statistics(summaries))
}

func (h *FlightHandler) detail(w http.ResponseWriter, r *http.Request) (*models.FlightDetail, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid flight id '%s'", r.PathValue("id")))
		return nil, false
	}
	detail, err := h.source.FetchDetail(r.Context(), id)
	if errors.Is(err, database.ErrFlightNotFound) {
		respondWithError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load flight %d: %v", id, err))
		return nil, false
	}
	return detail, true
}

func (h *FlightHandler) chart(w http.ResponseWriter, r *http.Request) (*profile.Chart, bool) {
	vp, err := h.viewportFrom(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	detail, ok := h.detail(w, r)
	if !ok {
		return nil, false
	}
	c := profile.New(vp, h.location)
	if _, err := c.Render(detail.Profile, vp); err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Flight %d: %v", detail.FlightID, err))
		return nil, false
	}
	return c, true
}

func (h *FlightHandler) viewportFrom(r *http.Request) (profile.Viewport, error) {
	vp := h.viewport
	var err error
	if vp.Width, err = floatParam(r, "width", vp.Width); err != nil || vp.Width <= 0 {
		return vp, fmt.Errorf("invalid width '%s'", r.URL.Query().Get("width"))
	}
	if vp.Height, err = floatParam(r, "height", vp.Height); err != nil || vp.Height <= 0 {
		return vp, fmt.Errorf("invalid height '%s'", r.URL.Query().Get("height"))
	}
	return vp, nil
}

func exportStatus(err error) int {
	if errors.Is(err, telemetry.ErrTooFewSamples) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
