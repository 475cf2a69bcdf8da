// Package handlers implements the HTTP handlers of the season API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/season-engine/internal/apperr"
	"github.com/ramonehamilton/season-engine/internal/metrics"
	"github.com/ramonehamilton/season-engine/internal/storage/models"
)

// pathInt parses a positive integer URL parameter.
func pathInt(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, apperr.Validation(name, "invalid id %q", raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter. Absent yields nil.
func queryInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperr.Validation(name, "not an integer: %q", raw)
	}
	return &v, nil
}

// querySeason parses the optional season parameter, which must be positive.
func querySeason(r *http.Request) (*int, error) {
	season, err := queryInt(r, "season")
	if err != nil {
		return nil, err
	}
	if season != nil && *season < 1 {
		return nil, apperr.Validation("season", "season must be positive, got %d", *season)
	}
	return season, nil
}

// queryScope parses the scope parameter, defaulting to all competitions.
func queryScope(r *http.Request) (models.Scope, error) {
	raw := r.URL.Query().Get("scope")
	scope, ok := models.ParseScope(raw)
	if !ok {
		return "", apperr.Validation("scope", "unknown scope %q", raw)
	}
	return scope, nil
}

// decodeJSON reads a JSON request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperr.Validation("body", "invalid JSON: %v", err)
	}
	return nil
}

// observe records the latency and outcome of an operation that started at start.
func observe(c *metrics.Collector, op string, start time.Time, err error) {
	c.Since(op, start, err)
}
