package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Trace(), middleware.ErrorHandler(), middleware.Recovery())
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// errorFields lists the "field" of every entry in a validation error body.
func errorFields(t *testing.T, body map[string]any) []string {
	t.Helper()
	details, ok := body["details"].(map[string]any)
	require.True(t, ok, "details missing: %v", body)
	items, ok := details["errors"].([]any)
	require.True(t, ok, "errors missing: %v", details)

	fields := make([]string, 0, len(items))
	for _, it := range items {
		if f, ok := it.(map[string]any)["field"].(string); ok {
			fields = append(fields, f)
		}
	}
	return fields
}
