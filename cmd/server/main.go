/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the NEU ledger engine server. Handles
  configuration, dependency injection, and graceful shutdown.

COMMANDS:
  serve            Start the HTTP server and background notifier
  recalc           Recalculate balances (one member or every member)

CONFIGURATION:
  --config points at a TOML file; a missing file falls back to defaults
  (127.0.0.1:8080, neu.db, 12h notifier sweep).

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Stop the notifier sweep loop
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with the default config
  ./server serve

  # Run with a config file and in-memory database
  ./server serve --config=./neu.toml
  ./server serve --db=":memory:"

  # Recalculate everyone after a data import
  ./server recalc --all

SEE ALSO:
  - api/server.go: Router configuration
  - api/notifier.go: Subscription expiry sweep
  - config/config.go: TOML configuration
*/
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

	"github.com/spf13/cobra"

	"github.com/coworkhub/neu-engine/api"
	"github.com/coworkhub/neu-engine/config"
	"github.com/coworkhub/neu-engine/ledger"
	"github.com/coworkhub/neu-engine/neu"
	"github.com/coworkhub/neu-engine/store/sqlite"
)

var (
	configPath string
	dbOverride string
)

var rootCmd = &cobra.Command{
	Use:   "neu-engine",
	Short: "NEU ledger and balance-reconciliation engine",
	Long: `Membership ledger for a coworking association. Tracks shifts,
volunteering, and point transfers, and reconciles every balance from the
raw event log with expiry-bucket accounting.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and background notifier",
	RunE:  runServe,
}

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recalculate balances from the event log",
	RunE:  runRecalc,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "neu.toml", "Path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "SQLite database path (overrides config)")

	recalcCmd.Flags().String("member", "", "Recalculate a single member")
	recalcCmd.Flags().Bool("all", false, "Recalculate every member")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recalcCmd)
}

func openStore(cfg config.Config) (*sqlite.Store, error) {
	path := cfg.Database.Path
	if dbOverride != "" {
		path = dbOverride
	}
	return sqlite.New(path)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store)
	router := api.NewRouter(handler, cfg.Server.CORSOrigins)

	notifier := api.NewNotifier(store, cfg.Notifier)
	notifier.Start()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://%s", cfg.Server.Addr())
		log.Printf("API available at http://%s/api", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	notifier.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

func runRecalc(cmd *cobra.Command, args []string) error {
	memberID, _ := cmd.Flags().GetString("member")
	all, _ := cmd.Flags().GetBool("all")
	if (memberID == "") != all {
		return fmt.Errorf("exactly one of --member or --all is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	ctx := context.Background()
	recalc := ledger.NewRecalculator(store, store)

	if all {
		n, err := recalc.RecalculateAll(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Recalculated %d member(s)\n", n)
		return nil
	}

	snap, err := recalc.Recalculate(ctx, neu.MemberID(memberID))
	if err != nil {
		return err
	}
	fmt.Printf("Member %s: balance=%s expiring_soon=%s\n",
		memberID, snap.Balance.Value.StringFixed(2), snap.ExpiringSoon.Value.StringFixed(2))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
