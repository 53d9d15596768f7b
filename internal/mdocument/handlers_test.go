package mdocument

import (
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
	auth "kyri56xcaesar/clubs-proj/internal/authmw"
)

func testEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	apperr.SetupValidation()

	e := gin.New()
	e.Use(func(c *gin.Context) {
		auth.SetIdentity(c, auth.Identity{Username: "olga", Roles: []string{auth.RoleLeader}})
	})
	docs := e.Group("/clubs/:clubid/documents")
	docs.GET("", handleListDocuments)
	docs.POST("", handleCreateDocument)
	docs.POST("/bulk-update-status", handleBulkStatus)
	docs.POST("/bulk-assign", handleBulkAssign)
	docs.POST("/bulk-delete", handleBulkDelete)
	docs.POST("/bulk-export", handleBulkExport)
	docs.GET("/:documentid", handleGetDocument)
	docs.PATCH("/:documentid/status", handleSetStatus)
	docs.PATCH("/:documentid/member-status", handleMemberStatus)
	docs.POST("/:documentid/review", handleReview)
	e.POST("/clubs/documents/templates", handleCreateTemplate)
	e.GET("/clubs/documents/templates/:templateid", handleGetTemplate)
	return e
}

func TestRejectedBeforeStorage(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
		want   string
	}{
		{"list negative offset", http.MethodGet, "/clubs/1/documents?offset=-5", "", 400, `"offset"`},
		{"create without title", http.MethodPost, "/clubs/1/documents", `{"priority":"High"}`, 400, `"title"`},
		{"create bad priority", http.MethodPost, "/clubs/1/documents", `{"title":"Budget","priority":"Urgent"}`, 400, `"priority"`},
		{"create bad type", http.MethodPost, "/clubs/1/documents", `{"title":"Budget","type":"Poster"}`, 400, `"type"`},
		{"create bad status", http.MethodPost, "/clubs/1/documents", `{"title":"Budget","status":"Done"}`, 400, `"status"`},
		{"bad document id", http.MethodGet, "/clubs/1/documents/abc", "", 400, `"documentId"`},
		{"status missing", http.MethodPatch, "/clubs/1/documents/4/status", `{}`, 400, `"status"`},
		{"status unknown", http.MethodPatch, "/clubs/1/documents/4/status", `{"status":"Archived"}`, 400, `"status"`},
		{"member status unknown", http.MethodPatch, "/clubs/1/documents/4/member-status",
			`{"userId":"petros","submissionStatus":"Lost"}`, 400, `"submissionStatus"`},
		{"review bad decision", http.MethodPost, "/clubs/1/documents/4/review", `{"userId":"petros","decision":"reject"}`, 400, `"decision"`},
		{"review no user", http.MethodPost, "/clubs/1/documents/4/review", `{"decision":"approve"}`, 400, `"userId"`},
		{"bulk status empty ids", http.MethodPost, "/clubs/1/documents/bulk-update-status", `{"ids":[],"status":"Completed"}`, 400, `"ids"`},
		{"bulk status bad id", http.MethodPost, "/clubs/1/documents/bulk-update-status", `{"ids":[0],"status":"Completed"}`, 400, "ids"},
		{"bulk assign no users", http.MethodPost, "/clubs/1/documents/bulk-assign", `{"ids":[1]}`, 400, `"userIds"`},
		{"bulk delete no ids", http.MethodPost, "/clubs/1/documents/bulk-delete", `{}`, 400, `"ids"`},
		{"bulk export malformed", http.MethodPost, "/clubs/1/documents/bulk-export", `{"ids":`, 400, "malformed json body"},
		{"template without name", http.MethodPost, "/clubs/documents/templates", `{"type":"Report"}`, 400, `"name"`},
		{"template bad id", http.MethodGet, "/clubs/documents/templates/x", "", 400, `"templateId"`},
		{"bad club", http.MethodPost, "/clubs/x/documents/bulk-delete", `{"ids":[1]}`, 400, `"clubId"`},
	}

	e := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()
			e.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func TestStatusRaceIsConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.PATCH("/member-status", func(c *gin.Context) {
		apperr.Respond(c, statusRace(fmt.Errorf("set member status: %w", pgx.ErrNoRows)))
	})

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/member-status", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "submission status changed concurrently")
}

func TestStatusRacePassesOtherErrors(t *testing.T) {
	require.NoError(t, statusRace(nil))

	boom := errors.New("connection reset")
	assert.Same(t, boom, statusRace(boom))
}
