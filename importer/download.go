// importer/download.go
package importer

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gewnthar/logbook/models"
	"github.com/go-resty/resty/v2"
)

// ManifestFileName is where a downloaded manifest is stored inside the
// download directory.
const ManifestFileName = "manifest.csv"

// Downloader fetches logbook manifests and the files they reference.
type Downloader struct {
	client *resty.Client
}

// NewDownloader returns a Downloader with a 30s timeout per request.
func NewDownloader(retries int) *Downloader {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetRetryCount(retries)
	client.SetRetryWaitTime(2 * time.Second)
	return &Downloader{client: client}
}

// NewDownloaderWithClient wraps an existing resty client.
func NewDownloaderWithClient(client *resty.Client) *Downloader {
	return &Downloader{client: client}
}

// DownloadFile saves the body of url to localSavePath, creating parent
// directories as needed.
func (d *Downloader) DownloadFile(ctx context.Context, url string, localSavePath string) error {
	log.Printf("Attempting to download file from URL: %s to local path: %s\n", url, localSavePath)

	dir := filepath.Dir(localSavePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetOutput(localSavePath).
		Get(url)
	if err != nil {
		return fmt.Errorf("failed to make GET request to %s: %w", url, err)
	}
	if resp.StatusCode() != 200 {
		os.Remove(localSavePath)
		return fmt.Errorf("failed to download file from %s: received status code %d", url, resp.StatusCode())
	}

	log.Printf("Successfully downloaded %s to %s\n", url, localSavePath)
	return nil
}

// DownloadBundle downloads the manifest at manifestURL into dir together
// with every track and profile file it names. File names are resolved
// against the manifest URL. It returns the parsed rows.
func (d *Downloader) DownloadBundle(ctx context.Context, manifestURL string, dir string) ([]models.ManifestRow, error) {
	base, err := url.Parse(manifestURL)
	if err != nil {
		return nil, fmt.Errorf("invalid manifest URL %q: %w", manifestURL, err)
	}

	manifestPath := filepath.Join(dir, ManifestFileName)
	if err := d.DownloadFile(ctx, manifestURL, manifestPath); err != nil {
		return nil, fmt.Errorf("failed to download manifest: %w", err)
	}

	f, err := os.Open(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open downloaded manifest %s: %w", manifestPath, err)
	}
	rows, err := ParseManifest(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, row := range rows {
		for _, name := range []string{row.TrackFile, row.ProfileFile} {
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true

			local, err := localName(dir, name)
			if err != nil {
				return nil, err
			}
			ref, err := url.Parse(name)
			if err != nil {
				return nil, fmt.Errorf("invalid file reference %q: %w", name, err)
			}
			if err := d.DownloadFile(ctx, base.ResolveReference(ref).String(), local); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}

// localName maps a manifest file reference to a path inside dir. References
// that would escape dir are rejected.
func localName(dir, name string) (string, error) {
	clean := path.Clean("/" + name)
	if strings.Contains(name, "://") || clean == "/" {
		return "", fmt.Errorf("unsupported file reference %q", name)
	}
	return filepath.Join(dir, filepath.FromSlash(clean[1:])), nil
}
