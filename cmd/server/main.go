package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tecnobra-backend/internal/auth"
	"tecnobra-backend/internal/cache"
	"tecnobra-backend/internal/config"
	"tecnobra-backend/internal/database"
	"tecnobra-backend/internal/db"
	h "tecnobra-backend/internal/http"
	"tecnobra-backend/internal/handlers"
	"tecnobra-backend/internal/health"
	"tecnobra-backend/internal/jobs"
	"tecnobra-backend/internal/middleware"
	"tecnobra-backend/internal/notify"
	"tecnobra-backend/internal/services"
	"tecnobra-backend/internal/store"
	"tecnobra-backend/internal/timeutil"
)

// openStore connects the configured backend. The redis backend also serves the report cache.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		log.Println("[Store] Using in-memory store (data is lost on restart)")
		return store.NewMemoryStore(), nil

	case "redis":
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		cache.Use(rs.Client())
		log.Printf("[Store] Connected to redis at %s", cfg.Redis.Addr)
		return rs, nil

	case "postgres":
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := database.NewMigrator(pool).RunMigrations(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		log.Printf("[Store] Connected to postgres at %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)
		return store.NewPostgresStore(pool), nil

	case "sqlite":
		ss, err := store.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		log.Printf("[Store] Using sqlite at %s", cfg.SQLite.Path)
		return ss, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

func main() {
	backupNow := flag.Bool("backup", false, "Upload one snapshot to the backup bucket and exit")
	restoreKey := flag.String("restore", "", "Restore a snapshot key (or \"latest\") from the backup bucket and exit")
	flag.Parse()

	if err := run(*backupNow, *restoreKey); err != nil {
		log.Fatal(err)
	}
}

// run returns instead of exiting so the deferred closes always happen
func run(backupNow bool, restoreKey string) error {
	cfg := config.Load()
	timeutil.SetLocation(cfg.Site.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("[Store] %w", err)
	}
	defer st.Close()

	if cfg.Store.Backend != "redis" && cfg.Redis.Addr != "" {
		if err := cache.Init(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			log.Printf("[Cache] Redis unavailable, report cache disabled: %v", err)
		}
	}

	var (
		backupService *services.BackupService
		backuper      jobs.Backuper
	)
	if cfg.Backup.Enabled {
		client, err := services.NewS3Client(ctx, cfg)
		if err != nil {
			return fmt.Errorf("[Backup] Failed to configure object storage: %w", err)
		}
		backupService = services.NewBackupService(st, client, cfg.Backup.Bucket)
		backuper = backupService
		log.Printf("[Backup] Snapshots go to bucket %s", cfg.Backup.Bucket)
	}

	if backupNow || restoreKey != "" {
		if backupService == nil {
			return errors.New("[Backup] backup.enabled is false")
		}
		if backupNow {
			key, err := backupService.Backup(ctx, timeutil.Now())
			if err != nil {
				return fmt.Errorf("[Backup] %w", err)
			}
			log.Printf("[Backup] Uploaded %s", key)
		}
		if restoreKey != "" {
			key := restoreKey
			if key == "latest" {
				key = ""
			}
			restored, err := backupService.Restore(ctx, key)
			if err != nil {
				return fmt.Errorf("[Backup] %w", err)
			}
			log.Printf("[Backup] Restored %s", restored)
		}
		return nil
	}

	notifier := notify.New(cfg.Telegram.Token, cfg.Telegram.ChatID)
	jwtManager := auth.NewJWTManager(cfg)

	// Services
	userService := services.NewUserService(st, jwtManager)
	employeeService := services.NewEmployeeService(st)
	attendanceService := services.NewAttendanceService(st, notifier)
	loanService := services.NewLoanService(st, notifier)
	rentalService := services.NewRentalService(st)
	safetyService := services.NewSafetyService(st, employeeService)
	visitService := services.NewVisitService(st)
	reportService := services.NewReportService(attendanceService, loanService, rentalService, safetyService, employeeService, visitService)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	employeeHandler := handlers.NewEmployeeHandler(employeeService)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceService)
	loanHandler := handlers.NewLoanHandler(loanService)
	rentalHandler := handlers.NewRentalHandler(rentalService)
	safetyHandler := handlers.NewSafetyHandler(safetyService)
	visitHandler := handlers.NewVisitHandler(visitService)
	reportHandler := handlers.NewReportHandler(reportService)
	backupHandler := handlers.NewBackupHandler(backupService)
	scanSocketHandler := handlers.NewScanSocketHandler(attendanceService, loanService, rentalService, cfg.Scanner.Timeout)
	scanSocketHandler.CheckOrigin = middleware.OriginChecker(cfg)
	healthHandler := handlers.NewHealthHandler(health.NewHealthChecker(st, cfg.Store.Backend))

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userService)
	corsMiddleware := middleware.NewCORS(cfg)
	requestLogger := middleware.NewRequestLogger()
	defer requestLogger.Close()

	router := h.NewRouter(
		authHandler,
		employeeHandler,
		attendanceHandler,
		loanHandler,
		rentalHandler,
		safetyHandler,
		visitHandler,
		reportHandler,
		backupHandler,
		scanSocketHandler,
		healthHandler,
		authMiddleware,
	)

	// Background jobs
	jobs.StartRentalTicker(ctx, rentalService, cfg.Rental.TickInterval)
	jobs.StartBackupJob(ctx, backuper, cfg.Backup.Interval)

	handler := middleware.PanicRecovery(middleware.MetricsMiddleware(requestLogger.Handler(corsMiddleware(router))))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Server running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	return nil
}
