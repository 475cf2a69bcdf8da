package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/season-engine/internal/apperr"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]int{"points": 3})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"points":3}}`, rec.Body.String())
}

func TestCreated(t *testing.T) {
	rec := httptest.NewRecorder()
	Created(rec, "ok")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
		wantField  string
	}{
		{"validation", apperr.Validation("side", "unknown side %q", "left"), http.StatusBadRequest, "", "side"},
		{"wrapped validation", fmt.Errorf("outer: %w", apperr.Validation("", "bad")), http.StatusBadRequest, "", ""},
		{"not found", apperr.NotFound("save", "abc"), http.StatusNotFound, "", ""},
		{"conflict", apperr.Conflict(apperr.CodeSubBudgetExhausted, "no subs left"), http.StatusConflict, "sub_budget_exhausted", ""},
		{"no active state", apperr.NoActiveState(4), http.StatusConflict, "no_active_state", ""},
		{"infrastructure", errors.New("disk full"), http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			FromError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Code)
			assert.Equal(t, tt.err.Error(), body.Message)
			assert.Equal(t, tt.wantReason, body.Reason)
			assert.Equal(t, tt.wantField, body.Field)
		})
	}
}
