package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"backend-navtrack/internal/config"
	"backend-navtrack/internal/shared/clock"

	"github.com/gofiber/fiber/v2"
)

func newServer() *Server {
	cfg := config.Config{
		ServerPort:            ":0",
		ThrottleEnabled:       false,
		ThrottleWindowSeconds: 2,
		LocationHistoryCap:    200,
		SpeedRecordCap:        50,
		BulkMaxBatch:          50,
	}
	return NewServer(cfg, nil, clock.Real{})
}

func TestHealthRoute(t *testing.T) {
	s := newServer()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 status")
	}

	var body struct {
		Success     bool   `json:"success"`
		ServiceType string `json:"service_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.ServiceType != "blind_navigation" {
		t.Fatalf("unexpected health body: %+v", body)
	}
}

func TestErrorEnvelope(t *testing.T) {
	s := newServer()

	req := httptest.NewRequest(http.MethodGet, "/api/destination", nil)
	resp, err := s.App.Test(req)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 status, got %d", resp.StatusCode)
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Fatalf("expected error envelope, got %+v", body)
	}
}

func TestEndToEndNavigationFlow(t *testing.T) {
	s := newServer()

	post := func(path string, payload fiber.Map) *http.Response {
		body, _ := json.Marshal(payload)
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.App.Test(req)
		if err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
		return resp
	}

	if resp := post("/api/navigation/start", fiber.Map{"session_id": "S1", "total_steps": 1}); resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d", resp.StatusCode)
	}
	if resp := post("/api/location/update", fiber.Map{
		"session_id": "S1",
		"location":   fiber.Map{"latitude": 32.0, "longitude": 76.0},
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("location update: %d", resp.StatusCode)
	}
	if resp := post("/api/navigation/step-completed", fiber.Map{
		"session_id": "S1", "step_index": 0, "step_instruction": "Walk straight",
		"current_location": fiber.Map{"latitude": 32.0, "longitude": 76.0},
	}); resp.StatusCode != http.StatusOK {
		t.Fatalf("step completed: %d", resp.StatusCode)
	}
	if resp := post("/api/navigation/complete", fiber.Map{"session_id": "S1"}); resp.StatusCode != http.StatusOK {
		t.Fatalf("complete: %d", resp.StatusCode)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/navigation/status/S1", nil)
	resp, err := s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %v", err)
	}
	var statusBody struct {
		Session struct {
			Status string `json:"status"`
		} `json:"session"`
		LocationStats *struct {
			TotalUpdates int `json:"total_updates"`
		} `json:"location_stats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&statusBody); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if statusBody.Session.Status != "completed" {
		t.Fatalf("expected completed session, got %+v", statusBody)
	}
	if statusBody.LocationStats == nil || statusBody.LocationStats.TotalUpdates != 1 {
		t.Fatalf("expected location stats in status")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/analytics/summary", nil)
	resp, err = s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("summary: %v", err)
	}
}

func TestThrottleEnabledServer(t *testing.T) {
	cfg := config.Config{
		ServerPort:            ":0",
		ThrottleEnabled:       true,
		ThrottleWindowSeconds: 2,
		LocationHistoryCap:    200,
		SpeedRecordCap:        50,
		BulkMaxBatch:          50,
	}
	s := NewServer(cfg, nil, clock.Real{})

	payload, _ := json.Marshal(fiber.Map{
		"session_id": "S1",
		"location":   fiber.Map{"latitude": 32.0, "longitude": 76.0},
	})
	req := httptest.NewRequest(http.MethodPost, "/api/location/update", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("first update: %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/location/update", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = s.App.Test(req)
	if err != nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected throttled second update, got %d", resp.StatusCode)
	}
}
