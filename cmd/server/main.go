package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classcoins/internal/config"
	"classcoins/internal/database"
	"classcoins/internal/events"
	"classcoins/internal/handlers"
	"classcoins/internal/models"
	"classcoins/internal/remote"
	"classcoins/internal/repository"
	"classcoins/internal/security"
	"classcoins/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	studentRepo := repository.NewStudentRepository(db)
	txnRepo := repository.NewTransactionRepository(db)
	quotaRepo := repository.NewQuotaRepository(db)
	rewardRepo := repository.NewRewardRepository(db)
	rankRepo := repository.NewRankHistoryRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	accountRepo := repository.NewAccountRepository(db)

	// Remote system of record. Without REMOTE_BASE_URL the server runs
	// standalone: rewards and roster changes stay local and the
	// reconciliation loop is not started.
	var remoteLedger service.RemoteLedger
	if cfg.RemoteBaseURL != "" {
		remoteLedger = remote.NewClient(remote.Config{
			BaseURL:      cfg.RemoteBaseURL,
			Timeout:      cfg.RemoteTimeout,
			TokenURL:     cfg.RemoteTokenURL,
			ClientID:     cfg.RemoteClientID,
			ClientSecret: cfg.RemoteClientSecret,
		})
		log.Printf("Remote ledger configured: %s", cfg.RemoteBaseURL)
	}

	// Initialize services
	bus := events.NewBus()
	clock := service.SystemClock{}
	tokens := security.NewTokenIssuer(cfg.JWTSecret, cfg.TokenDuration)

	emailService, err := service.NewEmailService(cfg.SESRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.Debug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}

	ledgerService := service.NewLedgerService(studentRepo, txnRepo, bus, clock)
	quotaService := service.NewQuotaService(quotaRepo, clock)
	rewardService := service.NewRewardService(rewardRepo, studentRepo, remoteLedger, bus, clock)
	rankingService := service.NewRankingService(studentRepo, rankRepo, clock)
	gradingService := service.NewGradingService(ledgerService, txnRepo, rewardService, accountRepo, studentRepo, emailService, cfg.LowScoreThreshold)
	shopService := service.NewShopService(ledgerService)
	authService := service.NewAuthService(accountRepo, studentRepo, tokens)
	rosterService := service.NewRosterService(studentRepo, groupRepo, remoteLedger, bus, clock)

	// Initialize handlers
	limiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(tokens, limiter)
	authHandler := handlers.NewAuthHandler(authService)
	studentHandler := handlers.NewStudentHandler(rosterService, ledgerService, quotaService, rewardService)
	groupHandler := handlers.NewGroupHandler(rosterService)
	gradingHandler := handlers.NewGradingHandler(gradingService, quotaService)
	gameHandler := handlers.NewGameHandler(ledgerService, quotaService)
	shopHandler := handlers.NewShopHandler(shopService)
	leaderboardHandler := handlers.NewLeaderboardHandler(rankingService)
	adminHandler := handlers.NewAdminHandler(ledgerService)
	eventsHandler := handlers.NewEventsHandler(bus)

	staff := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)
	admin := middleware.RequireRole(models.RoleAdmin)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/login", middleware.RateLimit(authHandler.Login))

	// Account routes
	mux.HandleFunc("POST /api/accounts", admin(authHandler.CreateAccount))
	mux.HandleFunc("POST /api/students/{id}/account", staff(authHandler.ProvisionStudentAccount))

	// Student roster routes
	mux.HandleFunc("GET /api/students", middleware.RequireAuth(studentHandler.List))
	mux.HandleFunc("GET /api/students/{id}", middleware.RequireAuth(studentHandler.Get))
	mux.HandleFunc("POST /api/students", staff(studentHandler.Create))
	mux.HandleFunc("PUT /api/students/{id}", staff(studentHandler.Update))
	mux.HandleFunc("DELETE /api/students/{id}", staff(studentHandler.Delete))

	// Group routes
	mux.HandleFunc("GET /api/groups", middleware.RequireAuth(groupHandler.List))
	mux.HandleFunc("POST /api/groups", staff(groupHandler.Create))
	mux.HandleFunc("PUT /api/groups/{id}", staff(groupHandler.Update))
	mux.HandleFunc("DELETE /api/groups/{id}", staff(groupHandler.Delete))

	// Coin ledger routes
	mux.HandleFunc("GET /api/students/{id}/balance", middleware.RequireAuth(studentHandler.Balance))
	mux.HandleFunc("GET /api/students/{id}/transactions", middleware.RequireAuth(studentHandler.History))
	mux.HandleFunc("POST /api/students/{id}/adjust", admin(adminHandler.Adjust))

	// Quota routes
	mux.HandleFunc("GET /api/students/{id}/quota", middleware.RequireAuth(studentHandler.Quota))
	mux.HandleFunc("GET /api/play/{feature}", middleware.RequireAuth(gameHandler.CanPlay))

	// Reward routes
	mux.HandleFunc("GET /api/students/{id}/reward", middleware.RequireAuth(studentHandler.PendingReward))
	mux.HandleFunc("POST /api/students/{id}/reward/ack", middleware.RequireAuth(studentHandler.AcknowledgeReward))

	// Homework routes
	mux.HandleFunc("POST /api/homework", middleware.RequireAuth(gradingHandler.Submit))
	mux.HandleFunc("POST /api/homework/{id}/grade", staff(gradingHandler.Grade))
	mux.HandleFunc("POST /api/homework/{id}/reject", staff(gradingHandler.Reject))
	mux.HandleFunc("POST /api/homework/{id}/retry", staff(gradingHandler.RetrySideEffects))

	// Game and lesson routes
	mux.HandleFunc("POST /api/play/result", middleware.RequireAuth(gameHandler.RecordResult))
	mux.HandleFunc("POST /api/lessons/complete", middleware.RequireAuth(gameHandler.CompleteLesson))

	// Shop routes
	mux.HandleFunc("POST /api/shop/purchase", middleware.RequireAuth(shopHandler.Purchase))

	// Leaderboard routes
	mux.HandleFunc("GET /api/leaderboard", middleware.RequireAuth(leaderboardHandler.List))
	mux.HandleFunc("GET /api/students/{id}/trend", middleware.RequireAuth(leaderboardHandler.Trend))

	// Change event stream
	mux.HandleFunc("GET /api/events", middleware.RequireAuth(eventsHandler.Stream))

	// Wrap with logging middleware
	handler := handlers.Logging(mux)

	// Start server
	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start the reconciliation loop when a remote is configured
	syncCtx, stopSync := context.WithCancel(context.Background())
	defer stopSync()
	if remoteLedger != nil {
		syncService := service.NewSyncService(studentRepo, txnRepo, rewardService, rankingService, remoteLedger, bus, clock, cfg.FastSyncInterval, cfg.ReviewSyncInterval)
		go syncService.Run(syncCtx)
		log.Printf("Reconciliation loop started (fast: %s, review: %s)", cfg.FastSyncInterval, cfg.ReviewSyncInterval)
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on http://localhost%s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	stopSync()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
