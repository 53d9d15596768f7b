package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("blob not found")

// Store keeps uploaded files. Keys are slash separated relative paths.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Object is the metadata stored next to a submission or document.
type Object struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// NewKey builds a unique key under prefix that keeps a readable file name.
func NewKey(prefix, fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	for strings.Contains(base, "..") {
		base = strings.ReplaceAll(base, "..", ".")
	}
	base = strings.Trim(base, "._")
	if base == "" {
		base = "file"
	}
	if len(base) > 100 {
		base = base[len(base)-100:]
	}
	return path.Join(prefix, uuid.NewString()+"-"+base)
}

// ValidKey rejects keys that could escape the store root.
func ValidKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}

// FileURL joins the configured API base, without its /api suffix, and the
// server provided relative path. The path is used as is.
func FileURL(apiBase, relPath string) string {
	base := strings.TrimSuffix(strings.TrimSuffix(apiBase, "/"), "/api")
	if relPath != "" && !strings.HasPrefix(relPath, "/") {
		relPath = "/" + relPath
	}
	return base + relPath
}

// FilesPath is the route prefix under which services serve stored files.
const FilesPath = "/files/"

func RelPath(key string) string {
	return FilesPath + key
}

// KeyFromPath undoes RelPath.
func KeyFromPath(relPath string) string {
	return strings.TrimPrefix(relPath, FilesPath)
}
