package http

import (
	"net/http"

	"tecnobra-backend/internal/handlers"
	"tecnobra-backend/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(
	authHandler *handlers.AuthHandler,
	employeeHandler *handlers.EmployeeHandler,
	attendanceHandler *handlers.AttendanceHandler,
	loanHandler *handlers.LoanHandler,
	rentalHandler *handlers.RentalHandler,
	safetyHandler *handlers.SafetyHandler,
	visitHandler *handlers.VisitHandler,
	reportHandler *handlers.ReportHandler,
	backupHandler *handlers.BackupHandler,
	scanSocketHandler *handlers.ScanSocketHandler,
	healthHandler *handlers.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) *mux.Router {
	r := mux.NewRouter()

	// Public API routes - Authentication
	r.HandleFunc("/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(authMiddleware.Authenticate)

	api.HandleFunc("/me", authHandler.Me).Methods("GET")

	// Labels
	api.HandleFunc("/qr.png", handlers.QRImage).Methods("GET")
	api.HandleFunc("/qr/decode", handlers.QRDecode).Methods("POST")

	// Employees
	api.HandleFunc("/employees", employeeHandler.List).Methods("GET")
	api.HandleFunc("/employees", employeeHandler.Create).Methods("POST")
	api.HandleFunc("/employees/{id}", employeeHandler.Get).Methods("GET")
	api.HandleFunc("/employees/{id}", employeeHandler.Update).Methods("PUT")
	api.HandleFunc("/employees/{id}", employeeHandler.Delete).Methods("DELETE")
	api.HandleFunc("/employees/{id}/qr", employeeHandler.QRToken).Methods("GET")
	api.HandleFunc("/employees/{id}/qr.png", employeeHandler.QRImage).Methods("GET")

	// Site gate
	api.HandleFunc("/checkin/scan", attendanceHandler.Scan).Methods("POST")
	api.HandleFunc("/checkin/today", attendanceHandler.Today).Methods("GET")
	api.HandleFunc("/checkin/employees/{id}", attendanceHandler.ByEmployee).Methods("GET")

	// Tool crib
	api.HandleFunc("/loans/scan", loanHandler.Scan).Methods("POST")
	api.HandleFunc("/loans", loanHandler.List).Methods("GET")
	api.HandleFunc("/loans/open", loanHandler.Open).Methods("GET")
	api.HandleFunc("/equipment", loanHandler.Equipment).Methods("GET")
	api.HandleFunc("/equipment", loanHandler.AddEquipment).Methods("POST")

	// Rental machines
	api.HandleFunc("/rental/machines", rentalHandler.List).Methods("GET")
	api.HandleFunc("/rental/machines", rentalHandler.Register).Methods("POST")
	api.HandleFunc("/rental/machines/{id}", rentalHandler.Get).Methods("GET")
	api.HandleFunc("/rental/machines/{id}", rentalHandler.Delete).Methods("DELETE")
	api.HandleFunc("/rental/machines/{id}/start", rentalHandler.Start).Methods("POST")
	api.HandleFunc("/rental/machines/{id}/stop", rentalHandler.Stop).Methods("POST")
	api.HandleFunc("/rental/machines/{id}/offline", rentalHandler.Offline).Methods("POST")
	api.HandleFunc("/rental/machines/{id}/idle", rentalHandler.Idle).Methods("POST")
	api.HandleFunc("/rental/scan", rentalHandler.Scan).Methods("POST")
	api.HandleFunc("/rental/live", rentalHandler.Live).Methods("GET")
	api.HandleFunc("/rental/sessions", rentalHandler.Sessions).Methods("GET")
	api.HandleFunc("/rental/summaries", rentalHandler.Summaries).Methods("GET")

	// Safety equipment
	api.HandleFunc("/safety", safetyHandler.List).Methods("GET")
	api.HandleFunc("/safety", safetyHandler.Deliver).Methods("POST")
	api.HandleFunc("/safety/stats", safetyHandler.Stats).Methods("GET")
	api.HandleFunc("/safety/{id}", safetyHandler.Delete).Methods("DELETE")
	api.HandleFunc("/safety/{id}/return", safetyHandler.Return).Methods("POST")
	api.HandleFunc("/safety/{id}/qr.png", safetyHandler.QRImage).Methods("GET")

	// Visits
	api.HandleFunc("/visits", visitHandler.List).Methods("GET")
	api.HandleFunc("/visits", visitHandler.Create).Methods("POST")
	api.HandleFunc("/visits/{id}", visitHandler.Delete).Methods("DELETE")
	api.HandleFunc("/visits/{id}/check-in", visitHandler.CheckIn).Methods("POST")
	api.HandleFunc("/visits/{id}/check-out", visitHandler.CheckOut).Methods("POST")

	// Reports
	api.HandleFunc("/reports/stats", reportHandler.Stats).Methods("GET")
	api.HandleFunc("/reports/{kind}/{format}", reportHandler.Export).Methods("GET")

	// Admin only
	adminAPI := api.PathPrefix("/admin").Subrouter()
	adminAPI.Use(authMiddleware.RequireAdmin)
	adminAPI.HandleFunc("/users", authHandler.ListUsers).Methods("GET")
	adminAPI.HandleFunc("/users", authHandler.CreateUser).Methods("POST")
	adminAPI.HandleFunc("/users/{id}", authHandler.DeleteUser).Methods("DELETE")
	adminAPI.HandleFunc("/backup", backupHandler.Backup).Methods("POST")
	adminAPI.HandleFunc("/backups", backupHandler.List).Methods("GET")
	adminAPI.HandleFunc("/restore", backupHandler.Restore).Methods("POST")

	// Camera page. Browsers cannot set headers on a websocket, so the token rides in ?token=
	r.Handle("/ws/scan", authMiddleware.Authenticate(http.HandlerFunc(scanSocketHandler.Serve))).Methods("GET")

	// Health endpoints (no auth required - for Kubernetes probes)
	r.HandleFunc("/health", healthHandler.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", healthHandler.ReadinessHealth).Methods("GET")
	r.HandleFunc("/health/detailed", healthHandler.DetailedHealth).Methods("GET")

	// Metrics endpoint (Prometheus format)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
