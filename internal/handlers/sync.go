package handlers

import (
	"errors"
	"net/http"

	"zone_control/internal/metasync"
	"zone_control/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	errSyncFailed      = "sync failed"
	errUnknownLocation = "unknown location"
)

// respondResult maps a sync result to the aggregate API shape and records
// the run for the WebSocket stream. Partial failure is still HTTP 200;
// consumers read the counts.
func (h *Handler) respondResult(c *gin.Context, family string, res metasync.Result) {
	h.runs.record(family, res)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) syncError(c *gin.Context, family string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		h.logAndJSONError(c, http.StatusNotFound, errUnknownLocation, "sync_unknown_location", err, "family", family)
		return
	}
	h.logAndJSONError(c, http.StatusInternalServerError, errSyncFailed, "sync_failed", err, "family", family)
}

func (h *Handler) syncTemperature(c *gin.Context) {
	res, err := h.engine.SyncTemperatureSensors(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.syncError(c, "temperature", err)
		return
	}
	h.respondResult(c, "temperature", res)
}

// Request DTO to scope a thermostat sync to specific devices.
type thermostatSyncRequest struct {
	ThermostatIDs []string `json:"thermostat_ids,omitempty"`
}

func (h *Handler) syncThermostats(c *gin.Context) {
	var req thermostatSyncRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logAndJSONError(c, http.StatusBadRequest, "invalid body: "+err.Error(), "sync_bad_body", err)
			return
		}
	}
	var exportOnly map[string]struct{}
	if len(req.ThermostatIDs) > 0 {
		exportOnly = make(map[string]struct{}, len(req.ThermostatIDs))
		for _, id := range req.ThermostatIDs {
			exportOnly[id] = struct{}{}
		}
	}

	res, err := h.engine.SyncThermostats(c.Request.Context(), c.Param("id"), exportOnly)
	if err != nil {
		h.syncError(c, "thermostats", err)
		return
	}
	h.respondResult(c, "thermostats", res)
}

func (h *Handler) syncGatewaySchedules(c *gin.Context) {
	res, err := h.engine.SyncGatewaySchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.syncError(c, "gateway_schedules", err)
		return
	}
	h.respondResult(c, "gateway_schedules", res)
}

// syncElectricSensors runs the electric sensor push and the trailing
// gateway schedule refresh as one visible composition.
func (h *Handler) syncElectricSensors(c *gin.Context) {
	sensors, schedules, err := h.engine.SyncElectricSensorsAndSchedules(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.syncError(c, "electric_sensors", err)
		return
	}
	h.runs.record("electric_sensors", sensors)
	h.runs.record("gateway_schedules", schedules)
	c.JSON(http.StatusOK, gin.H{
		"electric_sensors":  sensors,
		"gateway_schedules": schedules,
	})
}
