package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/printdesk/internal/api"
	"github.com/printdesk/printdesk/internal/config"
	"github.com/printdesk/printdesk/internal/core"
	"github.com/printdesk/printdesk/internal/db"
	"github.com/printdesk/printdesk/internal/printer"
	"github.com/printdesk/printdesk/internal/webhook"
	"github.com/printdesk/printdesk/internal/ws"
)

func main() {
	configPath := os.Getenv("PRINTDESK_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		log.Fatalf("failed to create upload dir: %v", err)
	}
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("failed to create database dir: %v", err)
		}
	}

	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close()

	engine := core.NewEngine(core.Options{
		Rates: core.RateTable{
			core.ColorModeColor:     cfg.Pricing.ColorRate,
			core.ColorModeGrayscale: cfg.Pricing.GrayscaleRate,
		},
		RequireConfirmation: cfg.Queue.RequireConfirmation,
		NotifyOwnerOnly:     cfg.Queue.NotifyOwnerOnly,
	})

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 5*time.Second)
	profile, err := db.Profile.GetProfile(loadCtx)
	cancelLoad()
	switch {
	case err == nil:
		engine.SetProfile(core.MerchantProfile{ShopName: profile.ShopName, PayoutID: profile.PayoutID})
		log.Printf("loaded merchant profile for %q", profile.ShopName)
	case errors.Is(err, sql.ErrNoRows):
		log.Printf("no merchant profile saved yet, waiting for setup")
	default:
		log.Fatalf("failed to load merchant profile: %v", err)
	}

	engine.SetHistoryRecorder(db.NewRecorder())
	if len(cfg.Webhooks.URLs) > 0 {
		engine.SetWebhookSender(webhook.NewSender(cfg.Webhooks.URLs, cfg.Webhooks.Secret))
	}

	seed := make([]printer.Printer, 0, len(cfg.Printers.Seed))
	for _, p := range cfg.Printers.Seed {
		seed = append(seed, printer.Printer{
			Name:        p.Name,
			IP:          p.IP,
			Port:        p.Port,
			Description: p.Description,
		})
	}
	printers := printer.NewRegistry(seed, cfg.Printers.ConnectionTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	printers.StartProbing(ctx, cfg.Printers.ProbeInterval)

	hub := ws.NewHub(engine, printers, cfg.CORS.Origin)
	engine.SetNotifier(hub)

	if cfg.Database.HistoryDays > 0 {
		go pruneHistory(ctx, cfg.Database.HistoryDays)
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Engine:   engine,
		Hub:      hub,
		Printers: printers,
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("printdesk listening on port %d (public url %s)", cfg.Server.Port, cfg.Server.PublicURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	cancel()
	hub.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("server stopped")
}

// pruneHistory drops audit rows older than the retention window, once at
// startup and then daily.
func pruneHistory(ctx context.Context, retentionDays int) {
	prune := func() {
		cutoff := time.Now().AddDate(0, 0, -retentionDays)
		pruneCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		removed, err := db.History.PruneBefore(pruneCtx, cutoff)
		if err != nil {
			log.Printf("history prune failed: %v", err)
			return
		}
		if removed > 0 {
			log.Printf("pruned %d history entries older than %d days", removed, retentionDays)
		}
	}

	prune()
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
