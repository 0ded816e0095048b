// Package pes is the HTTP client for the DP-PES device-control service.
// Success is double-checked: each endpoint has one fixed expected HTTP
// status, and the response envelope's code must equal the "successful"
// sentinel. A transport-level 2xx alone is not business success.
package pes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fixed endpoint paths. These are part of the DP-PES contract, not
// configuration.
const (
	pathTemperatureMetadata = "/api/v1/temperature/metadata"
	pathGatewaySchedules    = "/api/v1/gateway-schedules/metadata"
	pathThermostatMetadata  = "/api/v1/thermostats/metadata"
	pathThermostatStatus    = "/api/v1/modbus/metadata/thermostat/status"
	pathSimpleHold          = "/api/v1/modbus/metadata/thermostat/hvac-hold"
	pathAutoModeHold        = "/api/v1/modbus/metadata/thermostat/hvac-auto-mode-hold"
	pathLockout             = "/api/v1/modbus/metadata/thermostat/lockout"
	pathFanMode             = "/api/v1/modbus/metadata/thermostat/fan-mode"
	pathElectricSensor      = "/api/v10/pes/metadata/lorawan"
)

// anyStatus disables the HTTP status check; only the body code counts.
const anyStatus = 0

const defaultTimeout = 15 * time.Second

// Client talks to one DP-PES instance. Every call carries its own timeout
// so a stuck submission can never wedge a sync batch.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient builds a client for the given base URL. A zero timeout falls
// back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		timeout: timeout,
	}
}

func (c *Client) PushTemperatureMetadata(ctx context.Context, p TemperatureMetadata) error {
	return c.post(ctx, pathTemperatureMetadata, http.StatusCreated, p)
}

func (c *Client) PushGatewaySchedules(ctx context.Context, p GatewaySchedules) error {
	return c.post(ctx, pathGatewaySchedules, http.StatusCreated, p)
}

func (c *Client) PushThermostatMetadata(ctx context.Context, p ThermostatMetadata) error {
	return c.post(ctx, pathThermostatMetadata, http.StatusCreated, p)
}

func (c *Client) PushThermostatStatus(ctx context.Context, p ThermostatStatus) error {
	return c.post(ctx, pathThermostatStatus, http.StatusOK, p)
}

func (c *Client) PushSimpleHold(ctx context.Context, p SimpleHold) error {
	return c.post(ctx, pathSimpleHold, http.StatusOK, p)
}

func (c *Client) PushAutoModeHold(ctx context.Context, p AutoModeHold) error {
	return c.post(ctx, pathAutoModeHold, http.StatusOK, p)
}

func (c *Client) PushLockout(ctx context.Context, p Lockout) error {
	return c.post(ctx, pathLockout, http.StatusOK, p)
}

func (c *Client) PushFanMode(ctx context.Context, p FanMode) error {
	return c.post(ctx, pathFanMode, http.StatusOK, p)
}

func (c *Client) PushElectricSensorMetadata(ctx context.Context, p ElectricSensorMetadata) error {
	return c.post(ctx, pathElectricSensor, anyStatus, p)
}

// post submits a payload and verifies both the HTTP status (when the
// endpoint pins one) and the envelope code.
func (c *Client) post(ctx context.Context, path string, expect int, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	if expect != anyStatus && resp.StatusCode != expect {
		return fmt.Errorf("post %s: status %d, want %d", path, resp.StatusCode, expect)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("parse %s response: %w", path, err)
	}
	if env.Code != codeSuccessful {
		return fmt.Errorf("post %s: device service code %q: %s", path, env.Code, env.Message)
	}
	return nil
}
