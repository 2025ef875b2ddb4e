// Package storage provides byte stores keyed by object name. Every backend
// maps a missing object to apperror.KindNotFound and any other failure to
// apperror.KindStore.
package storage

import (
	"context"
	"path"
	"strings"

	"github.com/zhuangyq008/s3-image-process/internal/apperror"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

// CleanKey normalises an object key and rejects keys that would escape the
// configured prefix.
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", apperror.Validation("key", "image key is required")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return "", apperror.Validation("key", "image key must not contain relative segments")
		}
	}
	return key, nil
}

// Prefixed scopes a store under a fixed key prefix.
type Prefixed struct {
	Store  Store
	Prefix string
}

func WithPrefix(s Store, prefix string) Store {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return s
	}
	return Prefixed{Store: s, Prefix: prefix}
}

func (p Prefixed) Get(ctx context.Context, key string) ([]byte, error) {
	return p.Store.Get(ctx, path.Join(p.Prefix, key))
}

func (p Prefixed) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return p.Store.Put(ctx, path.Join(p.Prefix, key), data, contentType)
}
