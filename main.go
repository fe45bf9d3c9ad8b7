// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gewnthar/logbook/config"
	"github.com/gewnthar/logbook/database"
	"github.com/gewnthar/logbook/handlers"
	"github.com/gewnthar/logbook/importer"
	"github.com/gewnthar/logbook/overlay"
	"github.com/gewnthar/logbook/profile"
	"github.com/gewnthar/logbook/remote"
	"github.com/gewnthar/logbook/services"
	"github.com/gewnthar/logbook/viewer"
	"github.com/paulmach/orb"
)

func main() {
	log.Println("Starting Logbook Application...")

	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	cfg := config.AppConfig
	log.Printf("Configuration loaded. Server port: %s, source: %s", cfg.Server.Port, cfg.Source.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()

	var source viewer.FlightSource
	switch cfg.Source.Mode {
	case config.SourceRemote:
		log.Printf("Reading flights from %s", cfg.Source.RemoteURL)
		source = remote.NewClient(cfg.Source.RemoteURL, cfg.Source.Timeout, cfg.Source.RetryCount)
	default:
		if err := database.InitDB(cfg.Database); err != nil {
			log.Fatalf("Error initializing database: %v", err)
		}
		defer database.CloseDB()
		if err := database.EnsureSchema(ctx); err != nil {
			log.Fatalf("Error creating schema: %v", err)
		}
		source = services.NewLocalSource()

		imports := services.NewImportService(cfg.Import, importer.NewDownloader(cfg.Source.RetryCount))
		handlers.NewAdminHandler(imports).Register(mux)
	}

	loc, err := cfg.Chart.Location()
	if err != nil {
		log.Fatalf("Error loading timezone: %v", err)
	}
	viewport := profile.Viewport{Width: cfg.Chart.Width, Height: cfg.Chart.Height, FontSize: cfg.Chart.FontSize}
	mapCfg := overlay.Config{
		Width:   cfg.Map.Width,
		Height:  cfg.Map.Height,
		Center:  orb.Point{cfg.Map.CenterLng, cfg.Map.CenterLat},
		Zoom:    cfg.Map.Zoom,
		MinZoom: cfg.Map.MinZoom,
		MaxZoom: cfg.Map.MaxZoom,
		Tiles: overlay.TileLayer{
			URL:         cfg.Map.TileURL,
			Attribution: cfg.Map.Attribution,
			MaxZoom:     cfg.Map.MaxZoom,
		},
	}

	session := viewer.NewSession(ctx, source, viewer.Options{Chart: viewport, Location: loc, Map: mapCfg})
	log.Printf("Viewer session %s started", session.ID)

	handlers.NewFlightHandler(source, viewport, loc, mapCfg).Register(mux)
	handlers.NewViewHandler(session).Register(mux)

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if database.DB != nil {
			if err := database.DB.PingContext(r.Context()); err != nil {
				http.Error(w, `{"status": "error", "message": "database connection error"}`, http.StatusInternalServerError)
				log.Printf("Health check failed: DB ping error: %v", err)
				return
			}
		}
		fmt.Fprintf(w, `{"status": "ok", "source": %q, "session": %q}`+"\n", cfg.Source.Mode, session.ID)
	})

	serverAddr := ":" + cfg.Server.Port
	server := &http.Server{Addr: serverAddr, Handler: mux}
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("Server starting on http://localhost%s\n", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Error starting server: %v", err)
	}
	session.Wait()
}
