package svc

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"kyri56xcaesar/clubs-proj/internal/conf"
)

func testConfig() conf.Config {
	return conf.Config{
		ApiGinMode:     "test",
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
	}
}

func TestNewEngine(t *testing.T) {
	e := NewEngine(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, gin.TestMode, gin.Mode())

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found","code":"not_found"}`, w.Body.String())
}
