// remote/client.go
package remote

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gewnthar/logbook/database"
	"github.com/gewnthar/logbook/models"
	"github.com/go-resty/resty/v2"
)

// Client is a flight source backed by another logbook server's
// /api/flights endpoints.
type Client struct {
	client *resty.Client
}

// NewClient talks to the logbook server at baseURL.
func NewClient(baseURL string, timeout time.Duration, retries int) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetTimeout(timeout)
	client.SetRetryCount(retries)
	client.SetRetryWaitTime(500 * time.Millisecond)
	client.SetHeader("Accept", "application/json")
	return &Client{client: client}
}

// ListSummaries fetches the flight history.
func (c *Client) ListSummaries(ctx context.Context) ([]models.FlightSummary, error) {
	var summaries []models.FlightSummary
	resp, err := c.client.R().
		SetContext(ctx).
		SetResult(&summaries).
		Get("/api/flights")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flight list: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("flight list returned status %d", resp.StatusCode())
	}

	log.Printf("Remote: Fetched %d flight summaries.\n", len(summaries))
	return summaries, nil
}

// FetchDetail fetches one flight. An unknown id yields
// database.ErrFlightNotFound so callers can treat both sources alike.
func (c *Client) FetchDetail(ctx context.Context, flightID int64) (*models.FlightDetail, error) {
	var detail models.FlightDetail
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("id", fmt.Sprint(flightID)).
		SetResult(&detail).
		Get("/api/flights/{id}")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flight %d: %w", flightID, err)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return &detail, nil
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %d", database.ErrFlightNotFound, flightID)
	default:
		return nil, fmt.Errorf("flight %d returned status %d", flightID, resp.StatusCode())
	}
}
