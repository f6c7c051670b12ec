package main

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "ledgerflow/docs"
	"ledgerflow/internal/config"
	"ledgerflow/internal/handler"
	"ledgerflow/internal/middleware"
	"ledgerflow/internal/scheduler"
	"ledgerflow/internal/store"
	"ledgerflow/pkg/logger"
)

// @title Ledgerflow Reconciliation API
// @version 1.0
// @description API for fetching, reconciling and querying bank and card transactions
// @termsOfService http://swagger.io/terms/

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel)
	logger.GetLogger().Info("Starting ledgerflow API")

	registry, err := cfg.LoadRegistry()
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to load account registry")
	}

	db, err := connectDB(cfg.Database)
	if err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if _, err := db.Exec(store.Schema); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to apply schema")
	}
	logger.GetLogger().Info("Database connection established")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	mailbox := scheduler.NewOTPMailbox(redisClient, 0)

	txStore := store.NewPostgresStore(db)

	accountHandler := handler.NewAccountHandler(registry, txStore, mailbox)

	router := setupRouter(accountHandler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.GetLogger().WithField("address", addr).Info("Server starting")

	if err := router.Run(addr); err != nil {
		logger.GetLogger().WithError(err).Fatal("Failed to start server")
	}
}

func connectDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func setupRouter(accountHandler *handler.AccountHandler) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	accounts := router.Group("/accounts")
	{
		accounts.GET("", accountHandler.ListAccounts)
		accounts.GET("/:id", accountHandler.GetAccount)
		accounts.GET("/:id/transactions", accountHandler.GetAccountTransactions)
		accounts.GET("/:id/transactions/summary", accountHandler.GetAccountTransactionSummary)
		accounts.GET("/:id/transactions/lookup", accountHandler.LookupTransaction)
		accounts.PUT("/:id/access_code", accountHandler.PutAccessCode)
	}

	return router
}
