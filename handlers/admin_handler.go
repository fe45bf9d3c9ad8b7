// handlers/admin_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gewnthar/logbook/database"
	"github.com/gewnthar/logbook/models"
	"github.com/gewnthar/logbook/services"
)

const defaultBatchLimit = 20

// AdminHandler runs logbook imports, reports past runs and deletes flights.
type AdminHandler struct {
	imports *services.ImportService
}

func NewAdminHandler(imports *services.ImportService) *AdminHandler {
	return &AdminHandler{imports: imports}
}

// Register adds the admin routes to mux.
func (h *AdminHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/admin/import", h.Import)
	mux.HandleFunc("GET /api/admin/imports", h.ListImports)
	mux.HandleFunc("DELETE /api/admin/flights/{id}", h.DeleteFlight)
}

// Import handles POST /api/admin/import. The JSON body is optional; without
// it the configured manifest is used.
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req models.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	batch, err := h.imports.ImportLogbook(r.Context(), req)
	switch {
	case errors.Is(err, services.ErrNoManifest):
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrImportRunning):
		respondWithError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Import from %s failed: %v", batch.Source, err))
		return
	}

	respondWithJSON(w, http.StatusOK, models.ImportResponse{
		Batch:   batch,
		Message: fmt.Sprintf("Imported %d of %d flights from %s.", batch.RowsSaved, batch.RowsRead, batch.Source),
	})
}

// ListImports handles GET /api/admin/imports?limit=.
func (h *AdminHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	limit := defaultBatchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit '%s'", raw))
			return
		}
		limit = n
	}

	batches, err := database.GetImportBatches(r.Context(), limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list imports: %v", err))
		return
	}
	if batches == nil {
		batches = []models.ImportBatch{}
	}
	respondWithJSON(w, http.StatusOK, batches)
}

// DeleteFlight handles DELETE /api/admin/flights/{id}. Open viewers keep the
// flight until their history is reloaded.
func (h *AdminHandler) DeleteFlight(w http.ResponseWriter, r *http.Request) {
	idStr := r.PathValue("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Invalid flight id '%s'", idStr))
		return
	}

	if err := database.DeleteFlight(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrFlightNotFound) {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete flight %d: %v", id, err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
