package deebot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hausware/deebot/internal/core"
)

func newTestPlugin(t *testing.T) (Plugin, *fakeTransport) {
	t.Helper()
	session, transport := newTestSession(t)
	return Plugin{session: session, health: core.HealthHealthy}, transport
}

func TestStateEndpoint(t *testing.T) {
	plugin, transport := newTestPlugin(t)
	mux := http.NewServeMux()
	plugin.RegisterHTTP(mux)

	transport.inject(EventBatteryInfo, attrEvent(EventBatteryInfo, map[string]string{"power": "64"}))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, stateEndpoint, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rec.Code)
	}

	var payload struct {
		Device Vacuum      `json:"device"`
		State  DeviceState `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Device.DID != "E0001234567890" {
		t.Fatalf("unexpected device: %+v", payload.Device)
	}
	if payload.State.BatteryLevel != 64 {
		t.Fatalf("unexpected battery level: %v", payload.State.BatteryLevel)
	}
}

func TestCommandEndpoint(t *testing.T) {
	plugin, transport := newTestPlugin(t)
	mux := http.NewServeMux()
	plugin.RegisterHTTP(mux)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, commandEndpoint,
		strings.NewReader(`{"verb":"clean","args":["auto","start"]}`))
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("unexpected status: %d (%s)", rec.Code, rec.Body.String())
	}
	if len(transport.sent) != 1 || transport.sent[0].Name != "clean" {
		t.Fatalf("command not dispatched: %v", transport.sent)
	}
}

func TestCommandEndpointRejectsBadInput(t *testing.T) {
	plugin, transport := newTestPlugin(t)
	mux := http.NewServeMux()
	plugin.RegisterHTTP(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, commandEndpoint, strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing verb must be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, commandEndpoint, strings.NewReader(`{"verb":"levitate"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown verb must be rejected, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, commandEndpoint, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET on command endpoint must be rejected, got %d", rec.Code)
	}

	if len(transport.sent) != 0 {
		t.Fatalf("rejected requests must not dispatch commands: %v", transport.sent)
	}
}
