// handlers/view_handler.go
package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gewnthar/logbook/navigation"
	"github.com/gewnthar/logbook/profile"
	"github.com/gewnthar/logbook/viewer"
)

// ViewHandler exposes a viewer session over HTTP.
type ViewHandler struct {
	session *viewer.Session
}

func NewViewHandler(session *viewer.Session) *ViewHandler {
	return &ViewHandler{session: session}
}

// Register adds the page and /api/view routes to mux.
func (h *ViewHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Page)
	mux.HandleFunc("POST /api/view/history", h.History)
	mux.HandleFunc("POST /api/view/select", h.Select)
	mux.HandleFunc("POST /api/view/toggle", h.Toggle)
	mux.HandleFunc("POST /api/view/pointer", h.Pointer)
	mux.HandleFunc("POST /api/view/wheel", h.Wheel)
	mux.HandleFunc("POST /api/view/resize", h.Resize)
	mux.HandleFunc("POST /api/view/alerts/dismiss", h.DismissAlerts)
	mux.HandleFunc("GET /api/view/state", h.State)
	mux.HandleFunc("GET /api/view/overlay", h.Overlay)
	mux.HandleFunc("GET /api/view/chart.svg", h.Chart)
}

// Page handles GET /. History is loaded on first access; a failure shows up
// as an alert on the page.
func (h *ViewHandler) Page(w http.ResponseWriter, r *http.Request) {
	st, err := h.session.State()
	if err != nil {
		h.sessionError(w, err)
		return
	}
	if !st.HistoryLoaded {
		h.session.LoadHistory(r.Context())
	}

	var buf bytes.Buffer
	if err := h.session.WritePage(&buf); err != nil {
		h.sessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// History handles POST /api/view/history.
func (h *ViewHandler) History(w http.ResponseWriter, r *http.Request) {
	if err := h.session.LoadHistory(r.Context()); err != nil {
		if errors.Is(err, viewer.ErrClosed) {
			h.sessionError(w, err)
			return
		}
		respondWithError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.State(w, r)
}

// Select handles POST /api/view/select?id=. The detail loads in the
// background; poll /api/view/state for the displayed flight.
func (h *ViewHandler) Select(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid flight id '%s'", r.URL.Query().Get("id")))
		return
	}
	if err := h.session.Select(id); err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusAccepted, map[string]int64{"selected_id": id})
}

// Toggle handles POST /api/view/toggle?group=YYYY or YYYY-MM.
func (h *ViewHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	collapsed, err := h.session.Toggle(group)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"group": group, "collapsed": collapsed})
}

// Pointer handles POST /api/view/pointer?x=&y=. The chart draws the cursor
// and readout on its next fetch. A pointer outside the plot answers 204.
func (h *ViewHandler) Pointer(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if errX != nil || errY != nil {
		respondWithError(w, http.StatusBadRequest, "x and y must be numbers")
		return
	}
	view, ok, err := h.session.Pointer(x, y)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"sample": view, "lines": view.Lines()})
}

// Wheel handles POST /api/view/wheel?delta=. A positive delta zooms in; the
// page sends the negated browser deltaY.
func (h *ViewHandler) Wheel(w http.ResponseWriter, r *http.Request) {
	delta, err := strconv.ParseFloat(r.URL.Query().Get("delta"), 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid delta '%s'", r.URL.Query().Get("delta")))
		return
	}
	if _, _, err := h.session.Wheel(delta); err != nil {
		h.sessionError(w, err)
		return
	}
	h.State(w, r)
}

// Resize handles POST /api/view/resize?width=&height=&font_size=.
func (h *ViewHandler) Resize(w http.ResponseWriter, r *http.Request) {
	var vp profile.Viewport
	var err error
	if vp.Width, err = strconv.ParseFloat(r.URL.Query().Get("width"), 64); err != nil || vp.Width <= 0 {
		respondWithError(w, http.StatusBadRequest, "width must be a positive number")
		return
	}
	if vp.Height, err = strconv.ParseFloat(r.URL.Query().Get("height"), 64); err != nil || vp.Height <= 0 {
		respondWithError(w, http.StatusBadRequest, "height must be a positive number")
		return
	}
	if vp.FontSize, err = floatParam(r, "font_size", profile.DefaultFontSize); err != nil {
		respondWithError(w, http.StatusBadRequest, "font_size must be a number")
		return
	}
	g, err := h.session.Resize(vp)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, g)
}

// DismissAlerts handles POST /api/view/alerts/dismiss.
func (h *ViewHandler) DismissAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.session.DismissAlerts()
	if err != nil {
		h.sessionError(w, err)
		return
	}
	if alerts == nil {
		alerts = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string][]string{"dismissed": alerts})
}

// State handles GET /api/view/state.
func (h *ViewHandler) State(w http.ResponseWriter, r *http.Request) {
	st, err := h.session.State()
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, st)
}

// Overlay handles GET /api/view/overlay.
func (h *ViewHandler) Overlay(w http.ResponseWriter, r *http.Request) {
	snap, err := h.session.Overlay()
	if err != nil {
		h.sessionError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

// Chart handles GET /api/view/chart.svg.
func (h *ViewHandler) Chart(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.session.WriteChart(&buf); err != nil {
		h.sessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}

func (h *ViewHandler) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, viewer.ErrClosed):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, viewer.ErrNoHistory):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, navigation.ErrUnknownFlight), errors.Is(err, navigation.ErrUnknownGroup):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, err.Error())
	}
}
