package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"go", []string{"go"}},
		{"go, web ,,db", []string{"go", "web", "db"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), "splitList(%q)", tt.in)
	}
}

func TestValidate_ReportsJSONFieldNames(t *testing.T) {
	type body struct {
		FollowID string `json:"followId" validate:"required,uuid"`
		Title    string `validate:"required"`
	}

	rr := httptest.NewRecorder()
	ok := validate(rr, newValidator(), body{FollowID: "nope"})

	require.False(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	details := decodeBody(t, rr)["details"].([]any)
	require.Len(t, details, 2)
	assert.Equal(t, map[string]any{"field": "followId", "rule": "uuid"}, details[0])
	assert.Equal(t, map[string]any{"field": "title", "rule": "required"}, details[1])
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rr := httptest.NewRecorder()

	var dst map[string]string
	assert.False(t, decodeJSON(rr, req, &dst))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}
