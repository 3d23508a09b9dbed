package main

import (
	"context"
	"os"

	"expenseflow/internal/currency"
	"expenseflow/internal/database"
	"expenseflow/internal/handler"
	"expenseflow/internal/logs"
	"expenseflow/internal/mailer"
	"expenseflow/internal/repository"
	"expenseflow/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Expense Approval API
// @version         1.0
// @description     Multi-tenant expense-approval workflow service.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	envErr := godotenv.Load("configs/.env")
	logs.Init()
	if envErr != nil {
		logs.Logger.Info("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		logs.Logger.Fatalf("Database connection failed: %v", err)
	}
	logs.Logger.Info("Connected to PostgreSQL successfully.")

	// External collaborators
	resolver := currency.NewResolver(os.Getenv("CURRENCY_API_URL"))
	notifier := mailer.NewFromEnv()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	companyRepo := repository.NewCompanyRepository(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Sweep stale refresh tokens left over from previous runs.
	if err := tokenRepo.DeleteExpired(context.Background()); err != nil {
		logs.Logger.WithError(err).Warn("Failed to sweep expired refresh tokens")
	}

	authService := service.NewAuthService(txManager, companyRepo, userRepo, tokenRepo, auditRepo, resolver)
	userService := service.NewUserService(txManager, userRepo, auditRepo, notifier)
	requestService := service.NewRequestService(db, requestRepo, ruleRepo, userRepo)
	summaryService := service.NewSummaryService(db)
	auditService := service.NewAuditService(auditRepo)

	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(userService, requestService, summaryService, auditService)
	userHandler := handler.NewUserHandler(requestService, userService, summaryService)

	// Set up Gin Router
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	adminHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	logs.Logger.Infof("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logs.Logger.Fatalf("Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
