package pes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func srv(t *testing.T, fn http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	s := httptest.NewServer(fn)
	t.Cleanup(s.Close)
	return s, NewClient(s.URL, 3*time.Second)
}

func ok(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{Code: "successful"})
}

func TestPushThermostatMetadata_Success(t *testing.T) {
	var got ThermostatMetadata
	_, c := srv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/thermostats/metadata" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		ok(w, http.StatusCreated)
	})

	err := c.PushThermostatMetadata(context.Background(), ThermostatMetadata{Duid: "T-1", Timezone: "UTC"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Duid != "T-1" {
		t.Fatalf("payload not delivered: %+v", got)
	}
}

func TestPost_WrongHTTPStatusFails(t *testing.T) {
	// 200 on an endpoint that pins 201 is a transport failure even though
	// the body says successful.
	_, c := srv(t, func(w http.ResponseWriter, r *http.Request) {
		ok(w, http.StatusOK)
	})
	err := c.PushGatewaySchedules(context.Background(), GatewaySchedules{GatewayDuid: "G-1"})
	if err == nil || !strings.Contains(err.Error(), "want 201") {
		t.Fatalf("expected status mismatch error, got %v", err)
	}
}

func TestPost_EnvelopeCodeMismatchFails(t *testing.T) {
	_, c := srv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(Envelope{Code: "device_offline", Message: "no ack"})
	})
	err := c.PushSimpleHold(context.Background(), SimpleHold{Duid: "T-1", Mode: "HEATING", SetPointF: 68})
	if err == nil || !strings.Contains(err.Error(), "device_offline") {
		t.Fatalf("expected envelope code error, got %v", err)
	}
}

func TestPost_UnparseableBodyFails(t *testing.T) {
	_, c := srv(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>oops</html>"))
	})
	err := c.PushFanMode(context.Background(), FanMode{Duid: "T-1", FanMode: "auto"})
	if err == nil || !strings.Contains(err.Error(), "parse") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestPushElectricSensorMetadata_AnyStatusBodyChecked(t *testing.T) {
	// The lorawan endpoint ignores the HTTP status; 202 with a successful
	// body is fine.
	_, c := srv(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v10/pes/metadata/lorawan" {
			t.Errorf("path = %s", r.URL.Path)
		}
		ok(w, http.StatusAccepted)
	})
	err := c.PushElectricSensorMetadata(context.Background(), ElectricSensorMetadata{Duid: "E-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPost_ContextCancelled(t *testing.T) {
	_, c := srv(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.PushLockout(ctx, Lockout{Duid: "T-1", Locked: true}); err == nil {
		t.Fatalf("expected error on cancelled context")
	}
}
