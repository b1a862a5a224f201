// Package api wires the HTTP surface: token issuance, pantry item CRUD,
// receipt scanning, voice session control and the authenticated WebSocket
// upgrade.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/thindery/pantry-pal/domain/entities"
	"github.com/thindery/pantry-pal/domain/repositories"
	"github.com/thindery/pantry-pal/internal/auth"
	"github.com/thindery/pantry-pal/internal/voice"
	"github.com/thindery/pantry-pal/internal/websocket"
	"github.com/thindery/pantry-pal/usecase"
)

// maxReceiptSize bounds uploaded receipt images.
const maxReceiptSize = 10 << 20 // 10MB

// InitRoutes initializes all API routes
func InitRoutes(
	e *echo.Echo,
	hub *websocket.Hub,
	inventory *usecase.InventoryService,
	scans *usecase.ScanService,
	voiceManager *voice.Manager,
	logger *zap.Logger,
) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "pantry-pal",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/auth/token", func(c echo.Context) error {
		return issueToken(c, logger)
	})

	protected := v1.Group("", jwtMiddleware(logger))

	// Pantry item APIs
	protected.GET("/items", func(c echo.Context) error {
		return listItems(c, inventory, logger)
	})
	protected.POST("/items", func(c echo.Context) error {
		return createItem(c, inventory, logger)
	})
	protected.GET("/items/:id", func(c echo.Context) error {
		return getItem(c, inventory)
	})
	protected.PUT("/items/:id", func(c echo.Context) error {
		return updateItem(c, inventory, logger)
	})
	protected.DELETE("/items/:id", func(c echo.Context) error {
		return deleteItem(c, inventory)
	})

	// Receipt scanning
	protected.POST("/scan/receipt", func(c echo.Context) error {
		return scanReceipt(c, scans, logger)
	})

	// Voice session control
	protected.POST("/voice/start", func(c echo.Context) error {
		return startVoice(c, voiceManager, logger)
	})
	protected.POST("/voice/stop", func(c echo.Context) error {
		return stopVoice(c, voiceManager)
	})
	protected.GET("/voice/status", func(c echo.Context) error {
		return c.JSON(http.StatusOK, VoiceStatusResponse{Active: voiceManager.Active()})
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, logger)
	})
}

// issueToken exchanges the shared API key for a user JWT
func issueToken(c echo.Context, logger *zap.Logger) error {
	var req AuthRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	expected := os.Getenv("PANTRY_API_KEY")
	if expected == "" || req.APIKey != expected {
		logger.Warn("Token request with invalid API key")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid API key",
		})
	}

	token, err := auth.GenerateUserToken("pantry-user")
	if err != nil {
		logger.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	})
}

// jwtMiddleware validates the Bearer token on protected routes
func jwtMiddleware(logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := auth.ValidateToken(bearerToken(c))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired JWT token",
				})
			}
			c.Set("user_id", claims.UserID)
			return next(c)
		}
	}
}

// bearerToken extracts the JWT from the Authorization header
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:]
	}
	return ""
}

func listItems(c echo.Context, inventory *usecase.InventoryService, logger *zap.Logger) error {
	items, err := inventory.List(c.Request().Context())
	if err != nil {
		logger.Error("Failed to list items", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal_error",
		})
	}
	if items == nil {
		items = []*entities.Item{}
	}
	return c.JSON(http.StatusOK, items)
}

func createItem(c echo.Context, inventory *usecase.InventoryService, logger *zap.Logger) error {
	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	item := entities.NewItem(req.Name, req.Quantity, req.Unit)
	item.Category = req.Category
	if err := inventory.Create(c.Request().Context(), item); err != nil {
		logger.Warn("Failed to create item", zap.String("name", req.Name), zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "create_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusCreated, item)
}

func getItem(c echo.Context, inventory *usecase.InventoryService) error {
	item, err := inventory.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, item)
}

func updateItem(c echo.Context, inventory *usecase.InventoryService, logger *zap.Logger) error {
	var req ItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	item, err := inventory.Get(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}

	item.Name = req.Name
	item.Quantity = req.Quantity
	item.Unit = req.Unit
	item.Category = req.Category
	if err := inventory.Update(c.Request().Context(), item); err != nil {
		logger.Warn("Failed to update item", zap.String("id", c.Param("id")), zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "update_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, item)
}

func deleteItem(c echo.Context, inventory *usecase.InventoryService) error {
	err := inventory.Delete(c.Request().Context(), c.Param("id"))
	if errors.Is(err, repositories.ErrItemNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found"})
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}
	return c.NoContent(http.StatusNoContent)
}

// scanReceipt accepts a receipt image as a multipart "receipt" file and
// merges its line items into the pantry
func scanReceipt(c echo.Context, scans *usecase.ScanService, logger *zap.Logger) error {
	file, err := c.FormFile("receipt")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "A 'receipt' image file is required",
		})
	}
	if file.Size > maxReceiptSize {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: "file_too_large",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Unable to read uploaded file",
		})
	}
	defer src.Close()

	image, err := io.ReadAll(io.LimitReader(src, maxReceiptSize))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Unable to read uploaded file",
		})
	}

	mimeType := file.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	items, err := scans.ScanReceipt(c.Request().Context(), image, mimeType)
	if err != nil {
		logger.Error("Receipt scan failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "scan_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ScanResponse{Items: items})
}

func startVoice(c echo.Context, voiceManager *voice.Manager, logger *zap.Logger) error {
	// The session outlives the request, so the dial must not inherit
	// the request context.
	if _, err := voiceManager.Start(context.Background()); err != nil {
		if errors.Is(err, voice.ErrSessionActive) {
			return c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "session_active",
				Message: "A voice session is already running",
			})
		}
		logger.Error("Failed to start voice session", zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "start_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, VoiceStatusResponse{Active: true})
}

func stopVoice(c echo.Context, voiceManager *voice.Manager) error {
	if err := voiceManager.Stop(); err != nil {
		if errors.Is(err, voice.ErrNoSession) {
			return c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "no_session",
				Message: "No voice session is running",
			})
		}
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "stop_failed",
			Message: err.Error(),
		})
	}
	return c.JSON(http.StatusOK, VoiceStatusResponse{Active: false})
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	// Browsers cannot set headers on WebSocket upgrades, so the token may
	// arrive as a query parameter instead.
	token := bearerToken(c)
	if token == "" {
		token = c.QueryParam("token")
	}
	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	logger.Info("WebSocket connection authenticated",
		zap.String("user_id", claims.UserID))
	return websocket.HandleWebSocketWithAuth(hub, c, claims.UserID, logger)
}
