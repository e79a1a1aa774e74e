package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/observability"
	"github.com/example/testmend/internal/scoring"
	"github.com/example/testmend/internal/service"
	"github.com/example/testmend/internal/storage/sqlite"
	"github.com/example/testmend/internal/web"
)

// Config holds the server configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`
	DebugAddr  string `yaml:"debug_addr"`
	SQLitePath string `yaml:"sqlite_path"`

	Scorer     domain.ScorerConfig     `yaml:"scorer"`
	Healer     domain.HealerConfig     `yaml:"healer"`
	Detector   domain.DetectorConfig   `yaml:"detector"`
	Quarantine domain.QuarantineConfig `yaml:"quarantine"`
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create metrics infrastructure
	metrics := observability.NewMetrics()

	// Start debug server for pprof and metrics
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics)
		// pprof endpoints are registered automatically via import
		log.Printf("Starting debug server on %s (pprof + metrics)", cfg.DebugAddr)
		if err := http.ListenAndServe(cfg.DebugAddr, mux); err != nil {
			log.Printf("Debug server error: %v", err)
		}
	}()

	// Initialize storage
	log.Printf("Initializing SQLite storage at %s", cfg.SQLitePath)
	store, err := sqlite.New(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	// Run migrations
	log.Println("Running database migrations...")
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create services
	healer := service.NewHealer(store, cfg.Healer, metrics, nil)
	healer.SetScorer(scoring.NewScorer(cfg.Scorer))
	reliability := service.NewReliability(store, cfg.Detector, cfg.Quarantine, metrics, nil)
	sessions := service.NewSessions(store)

	// Create and start the API server
	handlers := web.NewHandlers(healer, reliability, sessions)
	server := web.NewServer(cfg.ListenAddr, handlers)

	go func() {
		log.Printf("Starting API server on %s", cfg.ListenAddr)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	if err := server.Shutdown(context.Background()); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}

// loadConfig reads the optional YAML config file named by TESTMEND_CONFIG,
// applies defaults, then env overrides for the addresses and db path.
func loadConfig() (*Config, error) {
	cfg := &Config{
		ListenAddr: ":8090",
		DebugAddr:  ":6060",
		SQLitePath: "testmend.db",
	}

	if path := os.Getenv("TESTMEND_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if v := os.Getenv("TESTMEND_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("TESTMEND_DEBUG_ADDR"); v != "" {
		cfg.DebugAddr = v
	}
	if v := os.Getenv("TESTMEND_DB"); v != "" {
		cfg.SQLitePath = v
	}

	cfg.Scorer = cfg.Scorer.WithDefaults()
	cfg.Healer = cfg.Healer.WithDefaults()
	cfg.Detector = cfg.Detector.WithDefaults()
	cfg.Quarantine = cfg.Quarantine.WithDefaults()

	if err := cfg.Scorer.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Healer.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Detector.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Quarantine.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
