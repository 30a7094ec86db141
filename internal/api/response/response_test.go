package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"validation error",
			&rules.ValidationError{Fields: map[string]string{"title": "required"}},
			http.StatusUnprocessableEntity,
		},
		{
			"transition error",
			&domain.TransitionError{Entity: "content item", From: "closed", Name: "publish"},
			http.StatusConflict,
		},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"infrastructure", errors.New("connection refused"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			response.FromError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp response.Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Success {
				t.Error("error responses must not report success")
			}
		})
	}
}

func TestFromError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	response.FromError(rec, &rules.ValidationError{Fields: map[string]string{
		"slug":        "already taken",
		"expiry_date": "must be after publish_date",
	}})

	var resp struct {
		Error struct {
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Error.Fields["slug"] != "already taken" {
		t.Errorf("slug: got %q", resp.Error.Fields["slug"])
	}
	if resp.Error.Fields["expiry_date"] != "must be after publish_date" {
		t.Errorf("expiry_date: got %q", resp.Error.Fields["expiry_date"])
	}
}

func TestPage(t *testing.T) {
	rec := httptest.NewRecorder()
	response.Page(rec, []string{"a", "b"}, domain.PageInfo{Page: 1, PageSize: 20, Total: 2})

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Items []string        `json:"items"`
			Page  domain.PageInfo `json:"page"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !resp.Success || len(resp.Data.Items) != 2 || resp.Data.Page.Total != 2 {
		t.Errorf("unexpected body: %+v", resp)
	}
}
