package handlers

import (
	"errors"
	"net/http"
	"time"

	"zone_control/internal/hold"
	"zone_control/internal/models"
	"zone_control/internal/pes"
	"zone_control/internal/repository"

	"github.com/gin-gonic/gin"
)

const (
	errUnknownZone  = "unknown zone"
	errHoldFailed   = "hold operation failed"
	errNoActiveHold = "no active hold"
)

// Request DTO for creating a hold.
type holdRequest struct {
	Mode             string   `json:"mode" binding:"required"`
	SetpointC        *float64 `json:"setpoint_c,omitempty"`
	HeatingSetpointC *float64 `json:"heating_setpoint_c,omitempty"`
	CoolingSetpointC *float64 `json:"cooling_setpoint_c,omitempty"`
	Author           string   `json:"author" binding:"required"`
}

func (h *Handler) site(c *gin.Context) *repository.ZoneSite {
	site, err := h.zones.ZoneSiteByWidget(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.logAndJSONError(c, http.StatusNotFound, errUnknownZone, "zone_not_found", err)
		} else {
			h.logAndJSONError(c, http.StatusInternalServerError, errHoldFailed, "zone_lookup_failed", err)
		}
		return nil
	}
	return site
}

func (h *Handler) createHold(c *gin.Context) {
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "invalid body: "+err.Error(), "hold_bad_body", err)
		return
	}
	mode, err := models.ParseHvacMode(req.Mode)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "hold_bad_mode", err)
		return
	}
	site := h.site(c)
	if site == nil {
		return
	}
	tz, err := time.LoadLocation(site.Location.Timezone)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHoldFailed, "hold_bad_timezone", err)
		return
	}

	created, err := h.holds.Create(c.Request.Context(), site.Widget, tz, hold.Spec{
		Mode:             mode,
		SetpointC:        req.SetpointC,
		HeatingSetpointC: req.HeatingSetpointC,
		CoolingSetpointC: req.CoolingSetpointC,
		Origin:           models.UserInitiated,
		Author:           req.Author,
	}, time.Now().UTC())
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "hold_create_failed", err)
		return
	}

	// Resubmit the owning thermostat so the device sees the hold at once.
	h.resyncThermostat(c, site)
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getHold(c *gin.Context) {
	site := h.site(c)
	if site == nil {
		return
	}
	active, err := h.holds.Active(c.Request.Context(), site.Widget.ID, time.Now().UTC())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHoldFailed, "hold_lookup_failed", err)
		return
	}
	if active == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoActiveHold})
		return
	}
	c.JSON(http.StatusOK, active)
}

func (h *Handler) expireHold(c *gin.Context) {
	site := h.site(c)
	if site == nil {
		return
	}
	now := time.Now().UTC()
	active, err := h.holds.Active(c.Request.Context(), site.Widget.ID, now)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHoldFailed, "hold_lookup_failed", err)
		return
	}
	if active == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoActiveHold})
		return
	}
	if err := h.holds.Expire(c.Request.Context(), active, now); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errHoldFailed, "hold_expire_failed", err)
		return
	}

	h.resyncThermostat(c, site)
	c.JSON(http.StatusOK, gin.H{"status": "expired", "hold": active})
}

// resyncThermostat pushes the owning thermostat's metadata after a hold
// mutation. Best effort: the periodic restorer is the safety net.
func (h *Handler) resyncThermostat(c *gin.Context, site *repository.ZoneSite) {
	if site.Widget.ThermostatID == "" {
		return
	}
	only := map[string]struct{}{site.Widget.ThermostatID: {}}
	res, err := h.engine.SyncThermostats(c.Request.Context(), site.Location.ID, only)
	if err != nil {
		h.log.Errorw("hold_resync_failed", "zone", site.Widget.ID, "err", err)
		return
	}
	h.runs.record("thermostats", res)
}

// Request DTO for keypad lockout.
type lockoutRequest struct {
	Locked *bool `json:"locked" binding:"required"`
}

func (h *Handler) setLockout(c *gin.Context) {
	var req lockoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "invalid body: "+err.Error(), "lockout_bad_body", err)
		return
	}
	site := h.site(c)
	if site == nil {
		return
	}
	err := h.devices.PushLockout(c.Request.Context(), pes.Lockout{
		Duid:   site.ThermostatDuid,
		Locked: *req.Locked,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "lockout_push_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Request DTO for fan mode.
type fanModeRequest struct {
	FanMode string `json:"fan_mode" binding:"required"`
}

func (h *Handler) setFanMode(c *gin.Context) {
	var req fanModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, "invalid body: "+err.Error(), "fan_mode_bad_body", err)
		return
	}
	site := h.site(c)
	if site == nil {
		return
	}
	err := h.devices.PushFanMode(c.Request.Context(), pes.FanMode{
		Duid:    site.ThermostatDuid,
		FanMode: req.FanMode,
	})
	if err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, err.Error(), "fan_mode_push_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
