package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arborist-study-api/auth"
	"arborist-study-api/db"
	"arborist-study-api/exams"
	"arborist-study-api/handlers"
	"arborist-study-api/jobs"
	"arborist-study-api/payments"
	"arborist-study-api/utils"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		utils.LogStartup("No .env file found, using environment variables")
	}

	port := utils.GetEnvOrDefault("PORT", "8001")
	dbType := utils.GetEnvOrDefault("DB_TYPE", "sqlite")
	dbPath := utils.GetEnvOrDefault("DB_PATH", "./study.db")
	databaseURL := os.Getenv("DATABASE_URL")
	jwtSecret := utils.GetEnvOrDefault("JWT_SECRET", "change-me-in-production")
	jwtExpireHours := utils.GetEnvInt("JWT_EXPIRE_HOURS", 24)
	redisURL := os.Getenv("REDIS_URL")
	paypalMode := utils.GetEnvOrDefault("PAYPAL_MODE", "sandbox")
	paypalClientID := os.Getenv("PAYPAL_CLIENT_ID")
	paypalClientSecret := os.Getenv("PAYPAL_CLIENT_SECRET")
	frontendURL := utils.GetEnvOrDefault("FRONTEND_URL", "http://localhost:3000")
	latePolicy := utils.GetEnvOrDefault("EXAM_LATE_POLICY", exams.LatePolicyAccept)
	seedDemoUsers := utils.GetEnvOrDefault("SEED_DEMO_USERS", "false") == "true"

	utils.LogStartup("Configuration: port=%s db=%s latePolicy=%s paypalMode=%s", port, dbType, latePolicy, paypalMode)

	if jwtSecret == "change-me-in-production" {
		utils.LogStartup("WARNING: JWT_SECRET is not set, using an insecure default")
	}
	if latePolicy != exams.LatePolicyAccept && latePolicy != exams.LatePolicyReject {
		utils.LogStartup("Unknown EXAM_LATE_POLICY %q, falling back to accept", latePolicy)
		latePolicy = exams.LatePolicyAccept
	}

	database, err := db.InitDB(db.Config{Type: dbType, Path: dbPath, URL: databaseURL})
	if err != nil {
		utils.LogError("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.SeedQuestions(); err != nil {
		utils.LogError("Failed to seed questions: %v", err)
		os.Exit(1)
	}
	if seedDemoUsers {
		if err := database.SeedDemoUsers(utils.HashPassword); err != nil {
			utils.LogError("Failed to seed demo users: %v", err)
		}
	}

	tokens := auth.NewTokenService(jwtSecret, jwtExpireHours)
	provider := payments.NewPayPalClient(paypalMode, paypalClientID, paypalClientSecret, frontendURL)

	var jobManager *jobs.JobManager
	if redisURL != "" {
		jobManager = jobs.NewJobManager(redisURL)
		jobManager.RegisterHandlers(database)
		go func() {
			if err := jobManager.Start(); err != nil {
				utils.LogError("Job queue stopped: %v", err)
			}
		}()
	} else {
		utils.LogStartup("REDIS_URL not set, running without the job queue")
	}

	router := handlers.NewRouter(database, tokens, provider, jobManager, latePolicy)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		utils.LogStartup("Server listening on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.LogError("Server failed: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogShutdown("Shutting down...")

	if jobManager != nil {
		jobManager.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		utils.LogError("Forced shutdown: %v", err)
	}

	utils.LogShutdown("Server stopped")
}
