// services/import_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gewnthar/logbook/config"
	"github.com/gewnthar/logbook/database"
	"github.com/gewnthar/logbook/importer"
	"github.com/gewnthar/logbook/models"
)

var (
	ErrNoManifest    = errors.New("no manifest URL or path configured")
	ErrImportRunning = errors.New("an import is already running")
)

// ImportService loads logbook manifests into the flight store, one run at a
// time.
type ImportService struct {
	cfg        config.ImportConfig
	downloader *importer.Downloader
	running    sync.Mutex
}

func NewImportService(cfg config.ImportConfig, downloader *importer.Downloader) *ImportService {
	return &ImportService{cfg: cfg, downloader: downloader}
}

// ImportLogbook reads a manifest and upserts the flights it lists. A URL in
// the request wins over a path, and request values win over configured ones.
// Remote bundles are downloaded into a temporary directory under the blob
// directory; local manifests resolve their files next to the manifest.
// The run is recorded as an import batch whatever the outcome. Skipped rows
// do not fail the run; they are noted in the batch error message.
func (s *ImportService) ImportLogbook(ctx context.Context, req models.ImportRequest) (models.ImportBatch, error) {
	if !s.running.TryLock() {
		return models.ImportBatch{}, ErrImportRunning
	}
	defer s.running.Unlock()

	manifestURL, manifestPath := req.ManifestURL, req.ManifestPath
	if manifestURL == "" && manifestPath == "" {
		manifestURL, manifestPath = s.cfg.ManifestURL, s.cfg.ManifestPath
	}
	source := manifestURL
	if source == "" {
		source = manifestPath
	}
	if source == "" {
		return models.ImportBatch{}, ErrNoManifest
	}

	batch := models.ImportBatch{Source: source, StartedAt: time.Now().UTC()}
	id, err := database.StartImportBatch(ctx, source, batch.StartedAt)
	if err != nil {
		return batch, err
	}
	batch.ID = id
	log.Printf("Service: Import batch %d started from %s\n", id, source)

	runErr := s.run(ctx, manifestURL, manifestPath, &batch)

	finished := time.Now().UTC()
	batch.FinishedAt = &finished
	if runErr != nil {
		batch.ErrorMessage = runErr.Error()
	}
	if err := database.FinishImportBatch(ctx, batch); err != nil {
		log.Printf("ERROR Service: Failed to record outcome of import batch %d: %v", id, err)
		if runErr == nil {
			runErr = err
		}
	}
	return batch, runErr
}

func (s *ImportService) run(ctx context.Context, manifestURL, manifestPath string, batch *models.ImportBatch) error {
	var rows []models.ManifestRow
	var blobDir string

	if manifestURL != "" {
		if err := os.MkdirAll(s.cfg.BlobDir, 0755); err != nil {
			return fmt.Errorf("failed to create blob directory %s: %w", s.cfg.BlobDir, err)
		}
		tmp, err := os.MkdirTemp(s.cfg.BlobDir, "import-*")
		if err != nil {
			return fmt.Errorf("failed to create download directory: %w", err)
		}
		defer func() {
			log.Printf("Service: Cleaning up temporary directory: %s\n", tmp)
			if err := os.RemoveAll(tmp); err != nil {
				log.Printf("ERROR Service: Failed to remove temporary directory %s: %v\n", tmp, err)
			}
		}()

		rows, err = s.downloader.DownloadBundle(ctx, manifestURL, tmp)
		if err != nil {
			return fmt.Errorf("failed to download logbook from %s: %w", manifestURL, err)
		}
		blobDir = tmp
	} else {
		file, err := os.Open(manifestPath)
		if err != nil {
			return fmt.Errorf("failed to open manifest %s: %w", manifestPath, err)
		}
		defer file.Close()

		rows, err = importer.ParseManifest(file)
		if err != nil {
			return fmt.Errorf("failed to parse manifest %s: %w", manifestPath, err)
		}
		blobDir = filepath.Dir(manifestPath)
	}

	batch.RowsRead = len(rows)
	records, rejected := importer.BuildRecords(rows, blobDir)

	saved, err := database.SaveFlights(ctx, records)
	if err != nil {
		return fmt.Errorf("failed to save imported flights: %w", err)
	}
	batch.RowsSaved = saved

	if len(rejected) > 0 {
		batch.ErrorMessage = fmt.Sprintf("%d of %d manifest rows skipped, first: %v", len(rejected), len(rows), rejected[0])
	}
	log.Printf("Service: Import batch %d saved %d of %d flights.\n", batch.ID, saved, len(rows))
	return nil
}
