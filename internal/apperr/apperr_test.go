package apperr_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/apperr"
)

func respond(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	apperr.Respond(c, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestRespond(t *testing.T) {
	code, body := respond(t, apperr.Conflict("submission already graded"))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "submission already graded", body["error"])
	assert.Equal(t, apperr.CodeConflict, body["code"])

	code, body = respond(t, fmt.Errorf("load club: %w", pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, apperr.CodeNotFound, body["code"])

	code, body = respond(t, errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["error"])
}

func TestErrorUnwrapsDebugCause(t *testing.T) {
	err := apperr.NotFound("assignment").SetDebug(pgx.ErrNoRows)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, "assignment not found", err.Error())
	assert.Equal(t, http.StatusNotFound, err.HttpStatusCode())
}

type gradeInput struct {
	Score   *float64 `json:"score" binding:"required,gte=0"`
	Comment string   `json:"comment" binding:"max=5"`
}

func TestValidationUsesJSONNames(t *testing.T) {
	apperr.SetupValidation()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(`{"comment":"far too long"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var in gradeInput
	err := c.ShouldBindJSON(&in)
	require.Error(t, err)

	vErr := apperr.Validation(err)
	assert.Equal(t, http.StatusBadRequest, vErr.HttpStatusCode())
	assert.Contains(t, vErr.Fields(), "score")
	assert.Contains(t, vErr.Fields(), "comment")
	assert.Contains(t, vErr.Fields()["score"], "required")
}

func TestValidationMalformedJSON(t *testing.T) {
	var in gradeInput
	err := json.Unmarshal([]byte(`{"score":`), &in)
	vErr := apperr.Validation(err)
	assert.Equal(t, "malformed json body", vErr.Error())

	err = json.Unmarshal([]byte(`{"score":"ten"}`), &in)
	vErr = apperr.Validation(err)
	assert.Contains(t, vErr.Fields(), "score")
}
