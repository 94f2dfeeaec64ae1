package handlers

import (
	"net/http"

	"github.com/twmiller/dl-44/internal/config"
	"github.com/twmiller/dl-44/internal/interfaces"
	"github.com/twmiller/dl-44/internal/middleware/logging"

	"github.com/gin-gonic/gin"
)

// Handler carries the HTTP request handlers.
type Handler struct {
	usecase interfaces.Usecases
	hub     *Hub
	logger  *logging.Logger
}

// NewHandler creates the Handler.
func NewHandler(usecase interfaces.Usecases, hub *Hub, logger *logging.Logger) *Handler {
	return &Handler{
		usecase: usecase,
		hub:     hub,
		logger:  logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter configures and returns the HTTP router.
func ProvideRouter(h *Handler, cfg *config.AppConfig) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.Default()

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/ports", h.ListPorts)
		v1.GET("/baudrates", h.BaudRates)
		v1.GET("/snapshot", h.GetSnapshot)
		v1.GET("/ws", h.SnapshotStream)

		connection := v1.Group("/connection")
		{
			connection.POST("", h.Connect)
			connection.DELETE("", h.Disconnect)
			connection.GET("", h.GetConnection)
		}

		polling := v1.Group("/polling")
		{
			polling.POST("/start", h.StartPolling)
			polling.POST("/stop", h.StopPolling)
			polling.POST("/once", h.PollOnce)
		}

		control := v1.Group("/control")
		{
			control.POST("/jog", h.Jog)
			control.POST("/jog/cancel", h.JogCancel)
			control.POST("/home", h.Home)
			control.POST("/unlock", h.Unlock)
			control.POST("/hold", h.FeedHold)
			control.POST("/resume", h.CycleStart)
			control.POST("/reset", h.SoftReset)
			control.POST("/override/feed", h.FeedOverride)
			control.POST("/override/spindle", h.SpindleOverride)
			control.POST("/override/rapid", h.RapidOverride)
			control.POST("/frame", h.RunFrame)
			control.POST("/door", h.SafetyDoor)
			control.POST("/spindle-stop", h.SpindleStopToggle)
			control.POST("/coolant/flood", h.CoolantFloodToggle)
			control.POST("/coolant/mist", h.CoolantMistToggle)
			control.POST("/check-mode", h.CheckModeToggle)
		}

		device := v1.Group("/device")
		{
			device.GET("/settings", h.Settings)
			device.GET("/gcode-state", h.GCodeState)
			device.GET("/build-info", h.BuildInfo)
			device.GET("/startup-lines", h.StartupLines)
		}
	}

	return router
}
