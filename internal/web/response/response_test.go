package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dailies-app/dailies/internal/actions"
	"github.com/dailies-app/dailies/internal/store"
)

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"7"}`, rec.Body.String())
}

func TestNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	NoContent(rec)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestRenderError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", store.ErrNotFound, http.StatusNotFound, "not_found"},
		{"unknown entity", actions.ErrUnknownEntity, http.StatusNotFound, "not_found"},
		{"missing table", store.ErrMissingTable, http.StatusServiceUnavailable, "table_unavailable"},
		{"unique violation", store.ErrUniqueViolation, http.StatusConflict, "conflict"},
		{"foreign key", store.ErrForeignKeyViolation, http.StatusUnprocessableEntity, "constraint_violation"},
		{"not null", store.ErrNotNullViolation, http.StatusUnprocessableEntity, "constraint_violation"},
		{"anything else", assert.AnError, http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RenderError(rec, fmt.Errorf("select from shots: %w", tt.err))

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestRenderValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderValidationError(rec, "due_date", "must be a date")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "validation_failed", body.Error)
	assert.Equal(t, "due_date", body.Field)
	assert.Equal(t, "must be a date", body.Message)
}

func TestRenderBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	RenderBadRequest(rec, "field parameter required")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "field parameter required")
}
