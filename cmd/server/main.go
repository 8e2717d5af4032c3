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

	"github.com/wanderlog/journal-gate/pkg/journalgate/config"
)

func main() {
	// Load configuration from environment
	serverConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load server configuration: %v", err)
	}

	// Build service from configuration
	svc, repo, err := serverConfig.BuildService(context.Background())
	if err != nil {
		log.Fatalf("Failed to build service: %v", err)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: serverConfig.BuildHandler(svc, repo),
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Journal Gate Server starting on port %s (env: %s)", serverConfig.Port, serverConfig.Environment)
		log.Printf("Database: %s", serverConfig.DatabaseType)
		log.Printf("Photo backend: %s", serverConfig.PhotoBackend)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
