package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"snake-server/sim"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "snake.db", "SQLite database path (empty disables accounts and stats)")
	clientDir := flag.String("client", "", "Path to client directory (default: ../client)")
	publicURL := flag.String("public-url", "", "Base URL encoded in controller QR codes (default: request host)")
	seed := flag.Uint64("seed", 0, "Fixed random seed for every run (0 = time based)")
	mapSize := flag.Int("map-size", sim.MapSize, "Side length of the square map")
	anchor := flag.String("anchor", "entity", "Spawn exclusion anchor: entity or origin")
	flag.Parse()

	if *clientDir == "" {
		exe, _ := os.Executable()
		*clientDir = filepath.Join(filepath.Dir(exe), "..", "client")
		// Fallback for development
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = "../client"
		}
		if _, err := os.Stat(*clientDir); os.IsNotExist(err) {
			*clientDir = ""
		}
	}

	cfg := sim.DefaultConfig()
	cfg.Seed = *seed
	cfg.MapSize = *mapSize
	cfg.StartPosition = sim.DefaultStart(*mapSize)
	a, err := sim.ParseAnchor(*anchor)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg.BufferAnchor = a
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	var db *DB
	if *dbPath != "" {
		db, err = OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
	}
	analytics := NewAnalytics(db)

	hub := NewHub(db, analytics, cfg)
	go hub.Run()

	mux := SetupRoutes(hub, *clientDir, *publicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s (map %dx%d, anchor %s)", *addr, cfg.MapSize, cfg.MapSize, cfg.BufferAnchor)
		if *clientDir != "" {
			log.Printf("Serving client files from %s", *clientDir)
		}
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	analytics.Stop()
}
