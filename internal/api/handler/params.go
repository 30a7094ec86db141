package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clarionhq/daypress/internal/api/middleware"
	"github.com/clarionhq/daypress/internal/api/response"
	"github.com/clarionhq/daypress/internal/domain"
	"github.com/clarionhq/daypress/internal/rules"
)

// actor extracts the request actor, writing a 401 on failure.
func actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
	}
	return a, ok
}

// urlID parses a uuid path parameter, writing a 400 on failure.
func urlID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		response.BadRequest(w, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// decodePayload decodes the request body into an untyped payload,
// writing a 400 on malformed JSON.
func decodePayload(w http.ResponseWriter, r *http.Request) (rules.Payload, bool) {
	var payload rules.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.BadRequest(w, "invalid request body")
		return nil, false
	}
	return payload, true
}

// listFilter reads the shared list/search query parameters.
func listFilter(r *http.Request) domain.ListFilter {
	q := r.URL.Query()

	filter := domain.ListFilter{
		Status:   q.Get("status"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Stage:    q.Get("stage"),
		Search:   q.Get("search"),
	}

	if v := q.Get("region_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.RegionID = id
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = &t
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Page = n
		}
	}
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.PageSize = n
		}
	}

	return filter
}
