package objectstore

import (
	"context"
	"errors"
	"path"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

// Store is a flat key/value blob store addressed by slash-separated keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]string, error)
}

// IsObjectKey reports whether a listed key names a real object under prefix
// rather than a folder marker such as "raw_files/".
func IsObjectKey(key, prefix string) bool {
	if key == "" || strings.HasSuffix(key, "/") {
		return false
	}
	return strings.TrimSuffix(key, "/") != strings.TrimSuffix(prefix, "/")
}

// Join builds a key from a folder and a file name.
func Join(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// Stem returns the file name of key without directory or extension:
// "raw_files/paper_x.pdf" yields "paper_x".
func Stem(key string) string {
	base := path.Base(key)
	return strings.TrimSuffix(base, path.Ext(base))
}
