// config/config.go
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port" env:"LOGBOOK_PORT,overwrite"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host" env:"LOGBOOK_DB_HOST,overwrite"`
	Port     string `yaml:"port" env:"LOGBOOK_DB_PORT,overwrite"`
	User     string `yaml:"user" env:"LOGBOOK_DB_USER,overwrite"`
	Password string `yaml:"password" env:"LOGBOOK_DB_PASSWORD,overwrite"`
	DBName   string `yaml:"dbname" env:"LOGBOOK_DB_NAME,overwrite"`
}

// Source modes.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// SourceConfig picks where flights come from: the local database or another
// logbook server.
type SourceConfig struct {
	Mode       string        `yaml:"mode" env:"LOGBOOK_SOURCE,overwrite"`
	RemoteURL  string        `yaml:"remote_url" env:"LOGBOOK_REMOTE_URL,overwrite"`
	TimeoutStr string        `yaml:"timeout" env:"LOGBOOK_REMOTE_TIMEOUT,overwrite"`
	RetryCount int           `yaml:"retry_count" env:"LOGBOOK_REMOTE_RETRIES,overwrite"`
	Timeout    time.Duration `yaml:"-"` // Parsed duration
}

type ChartConfig struct {
	Width    float64 `yaml:"width" env:"LOGBOOK_CHART_WIDTH,overwrite"`
	Height   float64 `yaml:"height" env:"LOGBOOK_CHART_HEIGHT,overwrite"`
	FontSize float64 `yaml:"font_size" env:"LOGBOOK_CHART_FONT_SIZE,overwrite"`
	Timezone string  `yaml:"timezone" env:"LOGBOOK_TIMEZONE,overwrite"`
}

// Location resolves Timezone. "Local" and "" mean the host zone.
func (c ChartConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type MapConfig struct {
	Width       int     `yaml:"width" env:"LOGBOOK_MAP_WIDTH,overwrite"`
	Height      int     `yaml:"height" env:"LOGBOOK_MAP_HEIGHT,overwrite"`
	CenterLat   float64 `yaml:"center_lat" env:"LOGBOOK_MAP_LAT,overwrite"`
	CenterLng   float64 `yaml:"center_lng" env:"LOGBOOK_MAP_LNG,overwrite"`
	Zoom        int     `yaml:"zoom" env:"LOGBOOK_MAP_ZOOM,overwrite"`
	MinZoom     int     `yaml:"min_zoom"`
	MaxZoom     int     `yaml:"max_zoom"`
	TileURL     string  `yaml:"tile_url" env:"LOGBOOK_TILE_URL,overwrite"`
	Attribution string  `yaml:"attribution"`
}

type ImportConfig struct {
	ManifestURL  string `yaml:"manifest_url" env:"LOGBOOK_MANIFEST_URL,overwrite"`
	ManifestPath string `yaml:"manifest_path" env:"LOGBOOK_MANIFEST_PATH,overwrite"`
	BlobDir      string `yaml:"blob_dir" env:"LOGBOOK_BLOB_DIR,overwrite"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Source   SourceConfig   `yaml:"source"`
	Chart    ChartConfig    `yaml:"chart"`
	Map      MapConfig      `yaml:"map"`
	Import   ImportConfig   `yaml:"import"`
}

var AppConfig Config

var potentialPaths = []string{
	"config.yaml",
	"config/config.yaml",
}

// LoadConfig reads .env, the YAML file and LOGBOOK_* environment overrides
// into AppConfig. An empty path searches the usual locations; finding no
// file there is not an error.
func LoadConfig(configPath string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath == "" {
		for _, p := range potentialPaths {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
		if configPath == "" {
			log.Println("WARN Config: no config.yaml found, using defaults and environment")
		}
	}

	cfg, err := load(context.Background(), configPath, envconfig.OsLookuper())
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func load(ctx context.Context, configPath string, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
		}
		log.Printf("Loading configuration from: %s", configPath)
	}

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return cfg, fmt.Errorf("failed to process environment: %w", err)
	}

	applyDefaults(&cfg)

	if cfg.Source.TimeoutStr != "" {
		d, err := time.ParseDuration(cfg.Source.TimeoutStr)
		if err != nil {
			return cfg, fmt.Errorf("failed to parse source timeout: %w", err)
		}
		cfg.Source.Timeout = d
	} else {
		cfg.Source.Timeout = 10 * time.Second // Default
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}

	if cfg.Import.ManifestURL != "" {
		if err := os.MkdirAll(cfg.Import.BlobDir, 0755); err != nil {
			return cfg, fmt.Errorf("failed to create blob directory: %w", err)
		}
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Source.Mode == "" {
		cfg.Source.Mode = SourceLocal
	}
	if cfg.Source.RetryCount == 0 {
		cfg.Source.RetryCount = 2
	}
	if cfg.Chart.Width == 0 {
		cfg.Chart.Width = 1000
	}
	if cfg.Chart.Height == 0 {
		cfg.Chart.Height = 300
	}
	if cfg.Chart.FontSize == 0 {
		cfg.Chart.FontSize = 16
	}
	if cfg.Chart.Timezone == "" {
		cfg.Chart.Timezone = "Local"
	}
	if cfg.Map.Width == 0 {
		cfg.Map.Width = 800
	}
	if cfg.Map.Height == 0 {
		cfg.Map.Height = 600
	}
	if cfg.Map.CenterLat == 0 && cfg.Map.CenterLng == 0 {
		cfg.Map.CenterLat, cfg.Map.CenterLng = 45.5, 6.2
	}
	if cfg.Map.Zoom == 0 {
		cfg.Map.Zoom = 10
	}
	if cfg.Map.MaxZoom == 0 {
		cfg.Map.MaxZoom = 19
	}
	if cfg.Map.TileURL == "" {
		cfg.Map.TileURL = "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png"
	}
	if cfg.Map.Attribution == "" {
		cfg.Map.Attribution = "Map data: © OpenStreetMap contributors, SRTM | Map style: © OpenTopoMap (CC-BY-SA)"
	}
	if cfg.Import.BlobDir == "" {
		cfg.Import.BlobDir = "./data"
	}
}

func (c Config) validate() error {
	switch c.Source.Mode {
	case SourceLocal:
	case SourceRemote:
		if c.Source.RemoteURL == "" {
			return fmt.Errorf("source mode %q needs remote_url", SourceRemote)
		}
	default:
		return fmt.Errorf("unknown source mode %q", c.Source.Mode)
	}
	if c.Map.MinZoom > c.Map.MaxZoom {
		return fmt.Errorf("map min_zoom %d is above max_zoom %d", c.Map.MinZoom, c.Map.MaxZoom)
	}
	if _, err := c.Chart.Location(); err != nil {
		return err
	}
	return nil
}
