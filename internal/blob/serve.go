package blob

import (
	"errors"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// ServeHandler streams the object named by the *key route parameter.
func ServeHandler(s Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		if err := ValidKey(key); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file path", "code": "invalid_input"})
			return
		}

		rc, err := s.Get(c.Request.Context(), key)
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found", "code": "not_found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage error", "code": "internal_error"})
			return
		}
		defer rc.Close()

		contentType := mime.TypeByExtension(path.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
			"Content-Disposition": `inline; filename="` + path.Base(key) + `"`,
		})
	}
}
