package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clarionhq/daypress/internal/api/handler"
)

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["success"] != true {
		t.Error("expected success to be true")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}

	if data["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", data["status"])
	}
}

// TestSubmissionFlow tests the complete content submission flow
func TestSubmissionFlow(t *testing.T) {
	t.Skip("Requires database connection - run as integration test")

	// This would be the integration test flow:
	// 1. Register and login
	// 2. Create a workspace
	// 3. Create a draft content item
	// 4. Submit, publish and verify it appears in the public feed
	// 5. Close it and verify it drops out of the feed
}
