// Package storage abstracts where uploaded media bytes live. The rest
// of the application only ever sees opaque keys.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/viper"
)

var ErrNotFound = errors.New("object not found")

type Storage interface {
	// Save writes the object under key, overwriting any previous one
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Open returns a reader over the stored object. The caller closes it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by storage.type
func New() (Storage, error) {
	switch viper.GetString("storage.type") {
	case "s3":
		return NewS3()
	default:
		return NewLocal(viper.GetString("storage.local_path"))
	}
}
