package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"kyri56xcaesar/clubs-proj/internal/apperr"
	"kyri56xcaesar/clubs-proj/internal/utils"
)

// Upload is a received multipart file that has not been stored yet.
type Upload struct {
	Header *multipart.FileHeader
}

// ReadUpload parses the multipart form with a size cap and returns the file
// under field.
func ReadUpload(c *gin.Context, field string, maxBytes int64) (*Upload, error) {
	limitMsg := fmt.Sprintf("file exceeds the %g MB upload limit", utils.SizeInMb(maxBytes))
	if c.Request.ContentLength > maxBytes {
		return nil, apperr.TooLarge(limitMsg)
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	fh, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.TooLarge(limitMsg).SetDebug(err)
		}
		return nil, apperr.Invalid(field, "a file is required").SetDebug(err)
	}
	if fh.Size == 0 {
		return nil, apperr.Invalid(field, "file is empty")
	}
	return &Upload{Header: fh}, nil
}

func (u *Upload) ContentType() string {
	if ct := u.Header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if ct := mime.TypeByExtension(path.Ext(u.Header.Filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Save writes the upload to s under key and returns its metadata.
func (u *Upload) Save(ctx context.Context, s Store, key string) (Object, error) {
	f, err := u.Header.Open()
	if err != nil {
		return Object{}, err
	}
	defer f.Close()

	if err := s.Put(ctx, key, f, u.Header.Size, u.ContentType()); err != nil {
		return Object{}, err
	}
	return Object{
		FileName: u.Header.Filename,
		FilePath: RelPath(key),
		FileSize: u.Header.Size,
		MimeType: u.ContentType(),
	}, nil
}
