package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/wealth-ledger/internal/api/handlers"
	"github.com/dvloznov/wealth-ledger/internal/api/middleware"
	"github.com/dvloznov/wealth-ledger/internal/authgate"
	"github.com/dvloznov/wealth-ledger/internal/config"
	"github.com/dvloznov/wealth-ledger/internal/engine"
	"github.com/dvloznov/wealth-ledger/internal/invalidation"
	"github.com/dvloznov/wealth-ledger/internal/logger"
	"github.com/dvloznov/wealth-ledger/internal/receipts"
	"github.com/dvloznov/wealth-ledger/internal/scanner"
	"github.com/dvloznov/wealth-ledger/internal/store/sqlite"
)

func main() {
	// Parse command-line flags
	var (
		port   = flag.String("port", "", "HTTP server port (overrides PORT env)")
		dbPath = flag.String("db", "", "SQLite database path (overrides LEDGER_DB env)")
	)
	flag.Parse()

	// Initialize logger
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}

	ctx := context.Background()

	// Open the ledger store and apply the schema
	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply ledger schema")
	}

	// Invalidation hub feeds the dashboard cache
	hub := invalidation.NewHub()

	ledgerEngine := engine.New(store, hub, log)
	receiptScanner := scanner.NewGeminiScanner(cfg.GeminiModel)
	gate := authgate.New([]byte(cfg.JWTSecret))

	var archive handlers.ReceiptArchiver
	if cfg.ReceiptBucket != "" {
		archive = receipts.NewArchive(cfg.ReceiptBucket)
	} else {
		log.Warn().Msg("No receipt bucket configured - receipt archiving is disabled")
	}

	// Initialize handlers
	transactionsHandler := handlers.NewTransactionsHandler(ledgerEngine, log)
	receiptsHandler := handlers.NewReceiptsHandler(receiptScanner, archive, log)
	dashboardHandler := handlers.NewDashboardHandler(store, hub.Subscribe(64), log)

	// Create router
	mux := http.NewServeMux()

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.CreateTransaction(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		// Extract transaction ID from path
		transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if transactionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.GetTransaction(w, r, transactionID)
		case http.MethodPut:
			transactionsHandler.UpdateTransaction(w, r, transactionID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Receipts endpoints
	mux.HandleFunc("/api/receipts/scan", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			receiptsHandler.ScanReceipt(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Dashboard endpoint
	mux.HandleFunc("/api/dashboard", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			dashboardHandler.GetDashboard(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Everything under /api requires an authenticated caller; the health
	// check stays open for probes.
	root := http.NewServeMux()
	root.Handle("/api/", middleware.Auth(gate)(mux))
	root.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(root),
			),
		),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	hub.Close()

	log.Info().Msg("Server exited")
}
