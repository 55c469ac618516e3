package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateETagIsStable(t *testing.T) {
	a, err := GenerateETag(map[string]int{"imported": 2})
	require.NoError(t, err)
	b, err := GenerateETag(map[string]int{"imported": 2})
	require.NoError(t, err)
	c, err := GenerateETag(map[string]int{"imported": 3})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

func TestSendJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	SendJSONError(rec, "boom", http.StatusBadGateway)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"boom"}`, rec.Body.String())
}
