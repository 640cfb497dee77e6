package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()

	require.NoError(t, WriteJSON(w, http.StatusOK, map[string]int{"count": 2}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"count": 2}`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		details []string
		body    string
	}{
		{"plain", http.StatusNotFound, "category 7 not found", nil, `{"error": "category 7 not found"}`},
		{"with fields", http.StatusUnprocessableEntity, "invalid trigger", []string{"category_id"},
			`{"error": "invalid trigger", "details": ["category_id"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.status, tt.message, tt.details...)

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.body, w.Body.String())
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dest struct {
		ID int64 `json:"id"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"id": 7}`))
	w := httptest.NewRecorder()
	require.True(t, DecodeJSON(w, r, &dest))
	assert.Equal(t, int64(7), dest.ID)

	for _, body := range []string{`{"id": "x"}`, `{"id": 1, "extra": true}`, `{`} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		assert.False(t, DecodeJSON(w, r, &dest), body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, strings.HasPrefix(resp.Error, "invalid JSON: "), resp.Error)
	}
}
