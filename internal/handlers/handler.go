// Package handlers is the thin HTTP surface over the sync engine and the
// hold manager. It owns routing and request shaping only; all policy
// lives below it.
package handlers

import (
	"context"

	"zone_control/internal/hold"
	"zone_control/internal/logger"
	"zone_control/internal/metasync"
	"zone_control/internal/pes"
	"zone_control/internal/repository"

	"github.com/gin-gonic/gin"
)

// ZoneDirectory resolves a control zone to its widget and location.
type ZoneDirectory interface {
	ZoneSiteByWidget(ctx context.Context, widgetID string) (*repository.ZoneSite, error)
}

// DeviceCommands is the slice of the DP-PES client driven directly from
// the API: keypad lockout and fan mode.
type DeviceCommands interface {
	PushLockout(ctx context.Context, p pes.Lockout) error
	PushFanMode(ctx context.Context, p pes.FanMode) error
}

// Handler wires the HTTP layer to the engine, hold manager and logging.
type Handler struct {
	engine  *metasync.Engine
	holds   *hold.Manager
	zones   ZoneDirectory
	devices DeviceCommands
	log     *logger.Logger
	runs    *runLog
}

// NewHandler constructs the HTTP handler with its dependencies.
func NewHandler(engine *metasync.Engine, holds *hold.Manager, zones ZoneDirectory, devices DeviceCommands, log *logger.Logger) *Handler {
	return &Handler{
		engine:  engine,
		holds:   holds,
		zones:   zones,
		devices: devices,
		log:     log,
		runs:    newRunLog(),
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", h.health)

	api := router.Group("/api/v1")
	{
		h.registerSyncRoutes(api)
		h.registerZoneRoutes(api)
	}

	// Live sync-run summaries over WebSocket, same port.
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerSyncRoutes(api *gin.RouterGroup) {
	sync := api.Group("/locations/:id/sync")
	{
		sync.POST("/temperature", h.syncTemperature)
		sync.POST("/thermostats", h.syncThermostats)
		sync.POST("/gateway-schedules", h.syncGatewaySchedules)
		sync.POST("/electric-sensors", h.syncElectricSensors)
	}
}

func (h *Handler) registerZoneRoutes(api *gin.RouterGroup) {
	zones := api.Group("/zones/:id")
	{
		zones.GET("/hold", h.getHold)
		zones.POST("/hold", h.createHold)
		zones.DELETE("/hold", h.expireHold)
		zones.POST("/lockout", h.setLockout)
		zones.POST("/fan-mode", h.setFanMode)
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// logAndJSONError logs the underlying error and responds with the
// user-facing message only.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
