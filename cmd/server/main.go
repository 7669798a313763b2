package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"

	"github.com/finsight/finsight-backend/internal/api"
	"github.com/finsight/finsight-backend/internal/auth"
	"github.com/finsight/finsight-backend/internal/config"
	"github.com/finsight/finsight-backend/internal/database"
	"github.com/finsight/finsight-backend/internal/llm"
	"github.com/finsight/finsight-backend/internal/memory"
	"github.com/finsight/finsight-backend/internal/services"
	"github.com/finsight/finsight-backend/internal/tools"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logger.WithError(err).Fatal("failed to run migrations")
	}

	modelClient, err := llm.NewClient(cfg.Groq)
	if err != nil {
		logger.WithError(err).Fatal("failed to create model client")
	}

	store := memory.NewStore(db.DB, modelClient.Summarize, cfg.Agent.MaxTurns, logger)

	// The market dataset is optional at startup; queries against a
	// missing file degrade into textual tool errors.
	marketDB, err := database.OpenMarketData(cfg.MarketData.Path)
	if err != nil {
		logger.WithError(err).WithField("path", cfg.MarketData.Path).
			Warn("market data unavailable")
		marketDB = nil
	}
	stockTool := tools.NewStockQueryTool(marketDB, logger)
	searchClient := tools.NewSerperClient(cfg.Serper.APIKey, cfg.Serper.BaseURL, logger)
	dispatcher := tools.NewDispatcher(stockTool, searchClient,
		time.Duration(cfg.Agent.ToolTimeoutSeconds)*time.Second, logger)

	chatService := services.NewChatService(store, modelClient, dispatcher,
		cfg.Agent.SystemPromptPath, cfg.Agent.RecentLimit, cfg.Agent.MaxIterations, logger)

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		jwtSecret = "change-me-in-production"
		logger.Warn("using default JWT secret, set FINSIGHT_JWT_SECRET in production")
	}
	jwtService := auth.NewJWTService(jwtSecret, "finsight")

	app := fiber.New(fiber.Config{
		AppName:      "Finsight Backend",
		ErrorHandler: customErrorHandler,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: getOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	api.SetupRoutes(app, store, chatService, jwtService, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.WithField("addr", addr).Info("finsight backend starting")
	if err := app.Listen(addr); err != nil {
		logger.WithError(err).Fatal("failed to start server")
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}

func getOrigins() string {
	if origins := os.Getenv("FINSIGHT_CORS_ORIGINS"); origins != "" {
		return origins
	}
	return "http://localhost:3000"
}
