// models/api_models.go
package models

// ImportRequest is the optional JSON body of POST /api/admin/import.
type ImportRequest struct {
	ManifestURL  string `json:"manifest_url"`  // overrides the configured URL
	ManifestPath string `json:"manifest_path"` // local file, used when no URL is set
}

// ImportResponse reports the outcome of an import run.
type ImportResponse struct {
	Batch   ImportBatch `json:"batch"`
	Message string      `json:"message"`
}
