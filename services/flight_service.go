// services/flight_service.go
package services

import (
	"context"
	"log"
	"sort"

	"github.com/gewnthar/logbook/database"
	"github.com/gewnthar/logbook/models"
)

// BestFlightsCount is how many top-scoring flights Statistics reports.
const BestFlightsCount = 3

// LocalSource serves flights from the MySQL store.
type LocalSource struct{}

func NewLocalSource() *LocalSource { return &LocalSource{} }

// ListSummaries returns every stored flight in date order.
func (LocalSource) ListSummaries(ctx context.Context) ([]models.FlightSummary, error) {
	summaries, err := database.ListFlightSummaries(ctx)
	if err != nil {
		log.Printf("ERROR Service: Failed to list flights: %v", err)
		return nil, err
	}
	log.Printf("Service: Listed %d flights.\n", len(summaries))
	return summaries, nil
}

// FetchDetail returns one flight with its track and profile.
func (LocalSource) FetchDetail(ctx context.Context, flightID int64) (*models.FlightDetail, error) {
	return database.GetFlightDetail(ctx, flightID)
}

// Statistics totals the logbook and picks the best flights by score.
// Ties keep their list order.
func Statistics(summaries []models.FlightSummary) models.FlightStatistics {
	stats := models.FlightStatistics{Flights: len(summaries)}
	for _, s := range summaries {
		stats.TotalDuration += s.Duration
		stats.TotalDistance += s.Distance()
	}

	best := make([]models.FlightSummary, len(summaries))
	copy(best, summaries)
	sort.SliceStable(best, func(i, j int) bool { return best[i].Score > best[j].Score })
	if len(best) > BestFlightsCount {
		best = best[:BestFlightsCount]
	}
	stats.Best = best
	return stats
}
