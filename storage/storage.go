// Package storage holds avatar objects. Keys are relative object names such
// as users/7/avatar/1700000000_<uuid>.png; URL turns a key into an absolute
// reference a client can fetch.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidKey = errors.New("invalid object key")

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	URL(key, origin string) string
}
