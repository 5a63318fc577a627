package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"visit_portal/internal/config"
	"visit_portal/internal/handler"
	"visit_portal/internal/middleware"
	"visit_portal/internal/repository"
	"visit_portal/internal/service"
	"visit_portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading, relying on environment variables")
	}

	// --- Configuration ---
	dbCfg, err := config.LoadDBConfig()
	if err != nil {
		log.Fatalf("Failed to load DB config: %v", err)
	}
	appCfg, err := config.LoadAppConfig()
	if err != nil {
		log.Fatalf("Failed to load app config: %v", err)
	}

	// --- Database Connection ---
	dbPool, err := config.ConnectDB(dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbPool.Close()

	// --- Auto Migration ---
	if err := config.AutoMigrate(dbPool); err != nil {
		log.Fatalf("Failed to auto-migrate database: %v", err)
	}

	// --- Initialize Utilities ---
	tokenUtil := utils.NewSessionTokenUtil(appCfg.SessionSecret, appCfg.SessionTTL)
	mailer := utils.NewMailer(appCfg.SMTPHost, appCfg.SMTPPort, appCfg.SMTPUser, appCfg.SMTPPass, appCfg.MailFrom)

	// --- Initialize Repositories ---
	userRepo := repository.NewUserRepository(dbPool)
	sessionRepo := repository.NewSessionRepository(dbPool)
	resetRepo := repository.NewResetTokenRepository(dbPool)
	attemptRepo := repository.NewLoginAttemptRepository(dbPool)
	hospitalRepo := repository.NewHospitalRepository(dbPool)
	visitRepo := repository.NewVisitRepository(dbPool)

	// --- Initialize Services ---
	authService := service.NewAuthService(
		userRepo, sessionRepo, resetRepo, attemptRepo,
		tokenUtil, mailer,
		appCfg.SessionTTL, appCfg.ResetTokenTTL, appCfg.BaseURL,
	)
	hospitalService := service.NewHospitalService(hospitalRepo, userRepo)
	visitService := service.NewVisitService(visitRepo, hospitalRepo)

	// --- Seed Admin Account ---
	if err := authService.SeedAdmin(context.Background(), appCfg.AdminEmail, appCfg.AdminPassword); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// --- Initialize Handlers ---
	sessionCookie := &middleware.SessionCookie{
		MaxAge: int(appCfg.SessionTTL.Seconds()),
		Secure: appCfg.Production(),
	}
	authHandler := handler.NewAuthHandler(authService, sessionCookie, appCfg.DevMode)
	hospitalHandler := handler.NewHospitalHandler(hospitalService)
	visitHandler := handler.NewVisitHandler(visitService)

	// --- Setup Gin Router ---
	if appCfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Simple CORS middleware. Credentials require an explicit origin, so the
	// portal origin is echoed back rather than "*".
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", appCfg.BaseURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// --- Initialize Middlewares ---
	sessionAuthMW := middleware.SessionAuthMiddleware(authService, sessionCookie)
	adminRoleMW := middleware.AdminMiddleware()

	// --- Register Routes ---
	apiGroup := router.Group("/api/v1")
	authHandler.RegisterAuthRoutes(apiGroup, sessionAuthMW, adminRoleMW)
	hospitalHandler.RegisterHospitalRoutes(apiGroup, sessionAuthMW, adminRoleMW)
	visitHandler.RegisterVisitRoutes(apiGroup, sessionAuthMW, adminRoleMW)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := dbPool.Ping(context.Background()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:    ":" + appCfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", appCfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
