package blob_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/clubs-proj/internal/blob"
)

func TestFileURL(t *testing.T) {
	assert.Equal(t, "http://host:5045/files/a b.pdf", blob.FileURL("http://host:5045/api", "/files/a b.pdf"))
	assert.Equal(t, "http://host:5045/files/x", blob.FileURL("http://host:5045/api/", "files/x"))
	assert.Equal(t, "https://clubs.example/files/x", blob.FileURL("https://clubs.example", "/files/x"))
}

func TestNewKey(t *testing.T) {
	k := blob.NewKey("submissions/7", `C:\Users\me\My Essay (final).pdf`)
	assert.True(t, strings.HasPrefix(k, "submissions/7/"))
	assert.True(t, strings.HasSuffix(k, "-My_Essay_final_.pdf"))
	require.NoError(t, blob.ValidKey(k))

	assert.True(t, strings.HasSuffix(blob.NewKey("t", "../.."), "-file"))
}

func TestValidKey(t *testing.T) {
	for _, k := range []string{"", "/etc/passwd", "a/../b", `a\b`} {
		assert.Error(t, blob.ValidKey(k), k)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "docs/1/report.txt", strings.NewReader("hello"), 5, "text/plain"))

	rc, err := s.Get(ctx, "docs/1/report.txt")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "hello", string(b))

	require.NoError(t, s.Delete(ctx, "docs/1/report.txt"))
	require.NoError(t, s.Delete(ctx, "docs/1/report.txt"))

	_, err = s.Get(ctx, "docs/1/report.txt")
	assert.ErrorIs(t, err, blob.ErrNotFound)

	assert.Error(t, s.Put(ctx, "../escape", strings.NewReader("x"), 1, ""))
}

func TestServeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s, err := blob.NewLocal(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "a/notes.txt", strings.NewReader("notes"), 5, "text/plain"))

	r := gin.New()
	r.GET(blob.FilesPath+"*key", blob.ServeHandler(s))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/a/notes.txt", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "notes", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/a/missing.txt", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
