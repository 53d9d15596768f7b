package massign

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
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
	config.MaxUploadMB = 1

	e := gin.New()
	e.Use(func(c *gin.Context) {
		auth.SetIdentity(c, auth.Identity{Username: "petros", Roles: []string{auth.RoleMember}})
	})
	club := e.Group("/clubs/:clubid/assignments")
	club.GET("", handleListAssignments)
	club.POST("", handleCreateAssignment)
	club.GET("/:assignmentid", handleGetAssignment)
	club.PUT("/:assignmentid", handleUpdateAssignment)
	club.POST("/:assignmentid/submit", handleSubmit)
	club.PATCH("/:assignmentid/submissions/:submissionid/grade", handleGrade)
	club.POST("/:assignmentid/comments", handleCreateComment)
	club.PUT("/:assignmentid/comments/:commentid", handleUpdateComment)
	return e
}

func send(e *gin.Engine, method, target, contentType string, body *bytes.Buffer) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestRejectedBeforeStorage(t *testing.T) {
	const js = "application/json"
	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
		want   string
	}{
		{"create without title", http.MethodPost, "/clubs/1/assignments", `{"description":"x"}`, 400, `"title"`},
		{"create negative max score", http.MethodPost, "/clubs/1/assignments", `{"title":"Essay","maxScore":-5}`, 400, `"maxScore"`},
		{"create due before available", http.MethodPost, "/clubs/1/assignments",
			`{"title":"Essay","availableDate":"2025-11-20 00:00:00","dueDate":"2025-11-10 00:00:00"}`, 400, `"availableDate"`},
		{"create malformed date", http.MethodPost, "/clubs/1/assignments", `{"title":"Essay","dueDate":"20/11/2025"}`, 400, "invalid input"},
		{"bad assignment id", http.MethodGet, "/clubs/1/assignments/x", "", 400, `"assignmentId"`},
		{"update bad id", http.MethodPut, "/clubs/1/assignments/0", `{"title":"Essay"}`, 400, `"assignmentId"`},
		{"submit empty text", http.MethodPost, "/clubs/1/assignments/3/submit", `{"textContent":"   "}`, 400, `"textContent"`},
		{"submit missing text", http.MethodPost, "/clubs/1/assignments/3/submit", `{}`, 400, `"textContent"`},
		{"grade without score", http.MethodPatch, "/clubs/1/assignments/3/submissions/4/grade", `{"comment":"ok"}`, 400, `"score"`},
		{"grade negative", http.MethodPatch, "/clubs/1/assignments/3/submissions/4/grade", `{"score":-1}`, 400, `"score"`},
		{"grade bad submission id", http.MethodPatch, "/clubs/1/assignments/3/submissions/x/grade", `{"score":1}`, 400, `"submissionId"`},
		{"empty comment", http.MethodPost, "/clubs/1/assignments/3/comments", `{"body":""}`, 400, `"body"`},
		{"comment edit bad id", http.MethodPut, "/clubs/1/assignments/3/comments/nope", `{"body":"fixed"}`, 400, `"commentId"`},
		{"negative offset", http.MethodGet, "/clubs/1/assignments?offset=-1", "", 400, `"offset"`},
		{"non-numeric offset", http.MethodGet, "/clubs/1/assignments?offset=next", "", 400, `"offset"`},
		{"bad club id", http.MethodPost, "/clubs/club/assignments", `{"title":"Essay"}`, 400, `"clubId"`},
	}

	e := testEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body *bytes.Buffer
			ct := ""
			if tt.body != "" {
				body = bytes.NewBufferString(tt.body)
				ct = js
			}
			w := send(e, tt.method, tt.target, ct, body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), tt.want)
		})
	}
}

func multipartBody(t *testing.T, field, name string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSubmitUploadRejections(t *testing.T) {
	e := testEngine()

	body, ct := multipartBody(t, "", "", nil)
	w := send(e, http.MethodPost, "/clubs/1/assignments/3/submit", ct, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"file"`)

	body, ct = multipartBody(t, "file", "big.bin", []byte(strings.Repeat("x", 2<<20)))
	w = send(e, http.MethodPost, "/clubs/1/assignments/3/submit", ct, body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "1 MB upload limit")
}

func TestGradedSubmissionWriteIsConflict(t *testing.T) {
	orig := upsertSubmission
	t.Cleanup(func() { upsertSubmission = orig })

	var stored Submission
	upsertSubmission = func(_ context.Context, s Submission) (int64, error) {
		stored = s
		return 0, pgx.ErrNoRows
	}

	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.POST("/submit", func(c *gin.Context) {
		_, err := saveSubmission(c.Request.Context(), Submission{AssignmentID: 3, UserID: "petros", TextContent: "v2"})
		apperr.Respond(c, err)
	})

	w := send(e, http.MethodPost, "/submit", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "graded submissions are read-only")
	assert.Equal(t, "v2", stored.TextContent)
}

func TestSaveSubmissionPassesOtherResults(t *testing.T) {
	orig := upsertSubmission
	t.Cleanup(func() { upsertSubmission = orig })

	upsertSubmission = func(context.Context, Submission) (int64, error) { return 41, nil }
	id, err := saveSubmission(context.Background(), Submission{})
	require.NoError(t, err)
	assert.EqualValues(t, 41, id)

	boom := errors.New("connection reset")
	upsertSubmission = func(context.Context, Submission) (int64, error) { return 0, boom }
	_, err = saveSubmission(context.Background(), Submission{})
	assert.ErrorIs(t, err, boom)
}
