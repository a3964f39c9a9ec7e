package main

import (
	"log"
	"os"

	_ "backoffice/api/swagger" // swagger docs
	"backoffice/internal/database"
	"backoffice/internal/handler"
	"backoffice/internal/middleware"
	"backoffice/internal/repository"
	"backoffice/internal/service"
	"backoffice/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Back Office API
// @version         1.0
// @description     Warehouse, sales and debt ledger API for a small wholesale business.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := os.Getenv("DB_HOST")
	dbPort := os.Getenv("DB_PORT")
	dbUser := os.Getenv("DB_USER")
	dbPassword := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbSslMode := os.Getenv("DB_SSLMODE")

	if dbHost == "" {
		dbHost = "localhost"
	}
	if dbPort == "" {
		dbPort = "5432"
	}
	if dbUser == "" {
		dbUser = "postgres"
	}
	if dbPassword == "" {
		dbPassword = "postgres"
	}
	if dbName == "" {
		dbName = "postgres"
	}
	if dbSslMode == "" {
		dbSslMode = "disable"
	}

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	cfg := service.LoadConfig()

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	partyRepo := repository.NewPartyRepository(db)
	stockRepo := repository.NewStockRepository(db)
	importRepo := repository.NewImportRepository(db)
	saleRepo := repository.NewSaleRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	agentRepo := repository.NewAgentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	userService := service.NewUserService(userRepo)
	stockService := service.NewStockService(stockRepo, cfg)
	debtService := service.NewDebtService(partyRepo, saleRepo, importRepo, auditRepo, txManager)
	partyService := service.NewPartyService(partyRepo, auditRepo, txManager)
	importService := service.NewImportService(importRepo, partyRepo, auditRepo, stockService, debtService, txManager, wsHub, cfg)
	saleService := service.NewSaleService(saleRepo, partyRepo, agentRepo, auditRepo, stockService, debtService, txManager, wsHub, cfg)
	expenseService := service.NewExpenseService(expenseRepo, auditRepo, txManager)
	agentService := service.NewAgentService(agentRepo, auditRepo, txManager)
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	userHandler := handler.NewUserHandler(userService)
	partyHandler := handler.NewPartyHandler(partyService, debtService)
	stockHandler := handler.NewStockHandler(stockService)
	importHandler := handler.NewImportHandler(importService)
	saleHandler := handler.NewSaleHandler(saleService)
	expenseHandler := handler.NewExpenseHandler(expenseService)
	agentHandler := handler.NewAgentHandler(agentService)
	auditHandler := handler.NewAuditHandler(auditService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173", "http://localhost:5174"} // Frontend URL
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

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	userHandler.RegisterRoutes(router.Group(""))
	partyHandler.RegisterRoutes(router.Group(""))
	stockHandler.RegisterRoutes(router.Group(""))
	importHandler.RegisterRoutes(router.Group(""))
	saleHandler.RegisterRoutes(router.Group(""))
	expenseHandler.RegisterRoutes(router.Group(""))
	agentHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
