package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/adapters/audio"
	"github.com/thindery/pantry-pal/adapters/llm"
	"github.com/thindery/pantry-pal/adapters/mongo"
	"github.com/thindery/pantry-pal/internal/api"
	"github.com/thindery/pantry-pal/internal/voice"
	"github.com/thindery/pantry-pal/internal/websocket"
	"github.com/thindery/pantry-pal/usecase"
)

const systemInstruction = `You are Pantry Pal, a hands-free kitchen inventory
assistant. The user talks to you while cooking. Keep answers short and
spoken-friendly. When the user adds or uses items, call adjustStock with the
item name and a signed amount. Confirm every adjustment out loud.`

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// MongoDB
	db, err := mongo.NewClient(context.Background(), mongo.Config{
		URI:      os.Getenv("MONGODB_URI"),
		Database: os.Getenv("MONGODB_DATABASE"),
	}, logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Close(ctx)
	}()

	// Gemini
	geminiClient, err := llm.NewClient(logger)
	if err != nil {
		logger.Fatal("Failed to create Gemini client", zap.Error(err))
	}

	// Audio devices
	devices, err := audio.NewProvider(logger)
	if err != nil {
		logger.Fatal("Failed to initialize audio backend", zap.Error(err))
	}
	defer devices.Close()

	// Services
	inventoryRepo := mongo.NewInventoryRepository(db.Database)
	inventoryService := usecase.NewInventoryService(inventoryRepo, logger)
	scanService := usecase.NewScanService(llm.NewGeminiScanner(geminiClient, logger), inventoryService, logger)

	// Voice session manager; stock mutations issued by the model flow
	// straight into the inventory service.
	var hub *websocket.Hub
	voiceManager := voice.NewManager(voice.Config{
		Model:             llm.DefaultLiveModel,
		SystemInstruction: systemInstruction,
		Devices:           devices,
		Dialer:            llm.NewLiveDialer(geminiClient, logger),
		Mutate: func(name string, amount float64) string {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			result, err := inventoryService.AdjustStock(ctx, name, amount)
			if err != nil {
				logger.Error("Stock adjustment failed", zap.Error(err))
				return "error: " + err.Error()
			}
			return result
		},
		Notify: func(u voice.Update) {
			hub.BroadcastUpdate(u)
		},
		Logger: logger,
	}, logger)

	// WebSocket hub for UI clients
	hub = websocket.NewHub(voiceManager, logger)
	go hub.Run()

	watchdog := websocket.NewIdleWatchdog(hub, 0, logger)
	watchdog.Start()
	defer watchdog.Stop()

	// Initialize API routes
	api.InitRoutes(e, hub, inventoryService, scanService, voiceManager, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// End any live voice session before the devices go away.
	if err := voiceManager.Stop(); err != nil && err != voice.ErrNoSession {
		logger.Warn("Failed to stop voice session", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
