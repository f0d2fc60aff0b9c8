package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/construction-accounting/internal/config"
	"github.com/Dan9191/construction-accounting/internal/handler"
	"github.com/Dan9191/construction-accounting/internal/metrics"
	"github.com/Dan9191/construction-accounting/internal/middleware"
	"github.com/Dan9191/construction-accounting/internal/reminder"
	"github.com/Dan9191/construction-accounting/internal/repository"
	"github.com/Dan9191/construction-accounting/internal/service"
	"github.com/Dan9191/construction-accounting/internal/utils"
	"github.com/Dan9191/construction-accounting/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewRepository(db)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	err = repo.Ping(pingCtx)
	cancelPing()
	if err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if cfg.MigrateOnStart {
		if err := repository.Migrate(db); err != nil {
			logger.Fatalf("Failed to migrate database: %v", err)
		}
		logger.Info("Database schema is up to date")
	}

	cipher, err := utils.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Failed to create field cipher: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Initialize layers
	auth := service.NewAuthService(repo, logger, cfg.JWTSecret)
	payments := service.NewPaymentService(repo, logger, m)
	h := handler.NewHandler(handler.Services{
		Auth:       auth,
		Payments:   payments,
		Customers:  service.NewCustomerService(repo, logger),
		Cheques:    service.NewChequeService(repo, logger),
		Employees:  service.NewEmployeeService(repo, logger),
		Properties: service.NewPropertyService(repo, cipher, logger),
	}, logger, cfg.UpcomingWindowDays)

	// Reminder job
	var mailer reminder.Mailer
	if cfg.NotifyEmail != "" {
		mailer = email.NewSender(cfg, logger)
	}
	job := reminder.NewJob(payments, mailer, m, logger, cfg.UpcomingWindowDays, cfg.NotifyEmail)
	scheduler, err := job.Schedule(cfg.ReminderCron)
	if err != nil {
		logger.Fatalf("Failed to schedule reminders: %v", err)
	}
	scheduler.Start()

	// Setup router
	r := handler.NewRouter(h, middleware.AuthMiddleware(auth, logger, handler.PublicPaths), metrics.Handler(reg))

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	<-scheduler.Stop().Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
}
