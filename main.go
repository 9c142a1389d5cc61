// main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"iqrabackend/internal/catalog"
	"iqrabackend/internal/config"
	"iqrabackend/internal/data"
	"iqrabackend/internal/ledger"
	"iqrabackend/internal/logger"
	"iqrabackend/internal/middleware"
	"iqrabackend/internal/registry"
	"iqrabackend/internal/report"
	"iqrabackend/internal/roster"
	"iqrabackend/internal/security"
)

type App struct {
	addr          string
	mux           *http.ServeMux
	connections   sync.WaitGroup
	totalRequests int64
}

func main() {
	// Step 1: Setup configuration first
	config.LoadEnv()
	config.ConfigurePaths()

	// Step 2: Setup logging
	loggerConfig := config.LoggerConfig()
	if err := logger.SetupLogger(loggerConfig); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	// Only NOW is logging safe to use!
	logger.LogInfo("Environment and paths loaded. Logger ready.")

	// Step 3: Load registry and CORS settings
	config.LoadRegistrySettings()
	config.LoadCORSConfig()
	config.LogCurrentEnvironment()

	// Step 4: Open the database and prepare schema and sequences
	if err := data.InitDB(config.DatabasePath()); err != nil {
		logger.LogFatal("Failed to open database: %v", err)
	}
	defer data.CloseDB()

	if err := data.CreateTables(); err != nil {
		logger.LogFatal("Failed to create tables: %v", err)
	}

	sequences := data.NewSequenceRepository()
	if err := sequences.Ensure(data.SequenceRGNumber, config.StartingRGNumber); err != nil {
		logger.LogFatal("Failed to seed RG number sequence: %v", err)
	}
	if err := sequences.Ensure(data.SequenceTransactionCounter, config.StartingTransactionCounter); err != nil {
		logger.LogFatal("Failed to seed transaction counter: %v", err)
	}
	logger.LogInfo("Database ready at %s", config.DatabasePath())

	// Step 5: Setup app
	app := &App{
		addr: serverAddress(),
		mux:  routes(),
	}

	// Step 6: Run server
	app.Run()
}

// serverAddress builds the server address from environment variables
func serverAddress() string {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "5051"
	}
	return host + ":" + port
}

// routes sets up all API routes
func routes() *http.ServeMux {
	catalogSvc := catalog.NewService(config.DefaultAcademicYear)
	registrySvc := registry.NewService()
	ledgerSvc := ledger.NewService()
	reportSvc := report.NewService(catalogSvc, ledgerSvc)
	rosterSvc := roster.NewService(registrySvc)

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := data.GetDB(); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	apiMux := http.NewServeMux()

	// Catalog: departments, schedules, discounts, academic year
	apiMux.HandleFunc("/departments", viewer(catalogSvc.ListDepartmentsHandler))
	apiMux.HandleFunc("/departments/save", admin(catalogSvc.SaveDepartmentHandler))
	apiMux.HandleFunc("/departments/delete", admin(catalogSvc.DeleteDepartmentHandler))
	apiMux.HandleFunc("/settings", viewer(catalogSvc.GetSettingsHandler))
	apiMux.HandleFunc("/settings/discounts", admin(catalogSvc.SaveDiscountsHandler))
	apiMux.HandleFunc("/settings/academic-year", admin(catalogSvc.SaveAcademicYearHandler))

	// Registry: families
	apiMux.HandleFunc("/families", viewer(registrySvc.ListFamiliesHandler))
	apiMux.HandleFunc("/families/get", viewer(registrySvc.GetFamilyHandler))
	apiMux.HandleFunc("/families/register", user(registrySvc.RegisterFamilyHandler))
	apiMux.HandleFunc("/families/update", user(registrySvc.UpdateFamilyHandler))
	apiMux.HandleFunc("/families/delete", admin(registrySvc.DeleteFamilyHandler))

	// Ledger: payments
	apiMux.HandleFunc("/payments", viewer(ledgerSvc.ListPaymentsHandler))
	apiMux.HandleFunc("/payments/active", viewer(ledgerSvc.ActivePaymentsHandler))
	apiMux.HandleFunc("/payments/history", viewer(ledgerSvc.PaymentHistoryHandler))
	apiMux.HandleFunc("/payments/record", user(ledgerSvc.RecordPaymentHandler))
	apiMux.HandleFunc("/payments/edit", user(ledgerSvc.EditPaymentHandler))
	apiMux.HandleFunc("/payments/void", user(ledgerSvc.VoidPaymentHandler))

	// Reporting
	apiMux.HandleFunc("/tuition/quote", viewer(reportSvc.QuoteHandler))
	apiMux.HandleFunc("/tuition/breakdown", viewer(reportSvc.BreakdownHandler))
	apiMux.HandleFunc("/tuition/status", viewer(reportSvc.StatusHandler))
	apiMux.HandleFunc("/dashboard", viewer(reportSvc.DashboardHandler))

	// Roster exchange
	apiMux.HandleFunc("/roster/export", viewer(rosterSvc.ExportHandler))
	apiMux.HandleFunc("/roster/import", user(rosterSvc.ImportHandler))

	mux.Handle("/api/", http.StripPrefix("/api", apiMux))

	return mux
}

// Role-gated middleware chains. Viewer endpoints skip the role gate
// entirely since every caller qualifies.
func viewer(h http.HandlerFunc) http.HandlerFunc {
	return middleware.APIMiddleware(h)
}

func user(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RoleMiddleware(security.RoleUser, h)
}

func admin(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RoleMiddleware(security.RoleAdmin, h)
}

// Run starts the HTTP server
func (a *App) Run() {
	server := &http.Server{
		Addr:         a.addr,
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a separate goroutine
	go func() {
		logger.LogInfo("Starting server on %s", a.addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogFatal("Server failed: %v", err)
		}
	}()

	// Wait for a shutdown signal
	<-stop
	logger.LogInfo("Shutdown signal received")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server gracefully
	if err := server.Shutdown(ctx); err != nil {
		logger.LogError("Server shutdown error: %v", err)
	}

	// Wait for active connections to finish
	logger.LogInfo("Waiting for active connections to finish...")
	a.connections.Wait()
	logger.LogInfo("All connections closed. Total requests handled: %d", atomic.LoadInt64(&a.totalRequests))
	logger.LogInfo("Server shut down gracefully")
}

// Handler assembles all middleware around the main mux
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = security.AddCORSHeaders(handler)
	handler = a.trackConnections(handler)
	handler = withTimeout(handler, 15*time.Second)

	return handler
}

// Middleware: timeout handler
func withTimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.TimeoutHandler(h, timeout, "Request timed out")
}

// Middleware: track active connections and total requests
func (a *App) trackConnections(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.connections.Add(1)
		atomic.AddInt64(&a.totalRequests, 1)
		defer a.connections.Done()

		h.ServeHTTP(w, r)
	})
}
