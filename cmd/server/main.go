/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the HR engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Initialize SQLite store
  3. Register Prometheus collectors
  4. Create API handler with dependencies
  5. Configure HTTP router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080)
  -db         SQLite database path (default: hr.db)
              Use ":memory:" for an in-memory database
  -bootstrap  Create an initial admin account (username:email:password)
              when the user table is empty

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/hr.db"

  # First run, seeding an admin
  ./server -bootstrap="root:root@example.com:changeme"

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/hr-engine/api"
	"github.com/warp/hr-engine/hr"
	"github.com/warp/hr-engine/metrics"
	"github.com/warp/hr-engine/store/sqlite"
)

func main() {
	// Flags
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "hr.db", "SQLite database path")
	bootstrap := flag.String("bootstrap", "", "Seed admin as username:email:password when no users exist")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *bootstrap != "" {
		if err := seedAdmin(context.Background(), store, *bootstrap); err != nil {
			log.Fatalf("Failed to bootstrap admin: %v", err)
		}
	}

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// Handler and router
	handler := api.NewHandler(store, collector)
	limiter := api.NewRateLimiter(api.DefaultRateLimiterConfig())
	defer limiter.Stop()
	router := api.NewRouter(handler, registry, limiter)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// seedAdmin creates the initial admin account when the user table is empty.
func seedAdmin(ctx context.Context, store *sqlite.Store, spec string) error {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("bootstrap must be username:email:password")
	}

	_, total, err := store.ListUsers(ctx, hr.Page{Number: 1, Size: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		log.Println("Users already exist, skipping bootstrap")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(parts[2]), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	admin := hr.User{
		ID:            hr.UserID(uuid.NewString()),
		Username:      parts[0],
		Email:         parts[1],
		PasswordHash:  string(hash),
		Roles:         hr.NewRoleSet(hr.RoleAdmin),
		SickBalance:   hr.DefaultLeaveBalance,
		AnnualBalance: hr.DefaultLeaveBalance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := store.SaveUser(ctx, admin); err != nil {
		return err
	}

	log.Printf("Bootstrapped admin %q (%s)", admin.Username, admin.ID)
	return nil
}
