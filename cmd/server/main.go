/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file + environment)
  2. Initialize SQLite store and migrate schema
  3. Seed the leave type catalog on first run
  4. Wire workflow, processors, and HTTP handler
  5. Start the batch scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a config file (optional; env vars and defaults apply)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler and close the database
  4. Exit

EXAMPLES:
  # Run with defaults (leave.db in the working directory)
  ./server

  # Run with a config file
  ./server -config=./config.yaml

  # Run against an in-memory database
  LEAVE_DB_PATH=":memory:" ./server

SEE ALSO:
  - config/config.go: Settings
  - api/server.go: Router configuration
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
	"syscall"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/config"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize store
	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	catalog := st.Catalog()
	if cfg.SeedCatalog {
		if err := seedCatalog(context.Background(), st); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
	}

	// The HR integration is deployment-specific; the static directory
	// covers single-node installs seeded through ops tooling.
	directory := store.NewStaticDirectory()

	clock := leave.SystemClock
	workflow := leave.NewWorkflow(leave.WorkflowConfig{
		Store:     st,
		Catalog:   catalog,
		Directory: directory,
		Approval:  leave.ManagerApprovalPolicy(directory),
		Clock:     clock,
	})
	accrual := leave.NewAccrualProcessor(st, catalog, clock)
	carryOver := leave.NewCarryOverProcessor(st, catalog, clock)
	adjust := leave.NewAdjustmentService(st, catalog, directory, clock)

	handler := api.NewHandler(workflow, accrual, carryOver, adjust, catalog, clock)
	router := api.NewRouter(handler, api.RouterConfig{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	scheduler := api.NewBatchScheduler(accrual, carryOver, clock)
	scheduler.CheckInterval = cfg.SchedulerInterval
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.ServerPort)
		log.Printf("API available at http://localhost:%d/api", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

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

// seedCatalog installs the standard leave types unless the catalog
// already has entries.
func seedCatalog(ctx context.Context, st *sqlite.Store) error {
	existing, err := st.ListLeaveTypes(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, lt := range factory.StandardCatalog() {
		if err := st.SaveLeaveType(ctx, lt); err != nil {
			return err
		}
	}
	log.Println("Seeded standard leave type catalog")
	return nil
}
