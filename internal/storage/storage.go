// Package storage keeps uploaded files and analysis results in a named container.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/csvsentry/internal/config"
)

// ErrNotFound is returned when the named object does not exist.
var ErrNotFound = errors.New("object not found")

// BlobInfo describes a stored object.
type BlobInfo struct {
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedOn   time.Time `json:"createdOn"`
}

// Store is a flat namespace of named byte objects.
type Store interface {
	// Fetch returns the object's bytes or an error wrapping ErrNotFound.
	Fetch(ctx context.Context, name string) ([]byte, error)
	// Put stores data under name, replacing any previous object, and returns its URL.
	Put(ctx context.Context, name string, data []byte, contentType string) (string, error)
	Exists(ctx context.Context, name string) (bool, error)
	// List returns every object ordered by creation time.
	List(ctx context.Context) ([]BlobInfo, error)
}

// New builds the backend selected by cfg.StorageBackend.
func New(cfg *config.Global) (Store, error) {
	switch cfg.StorageBackend {
	case "", "local":
		return NewLocal(cfg.StorageDir, cfg.StorageContainer)
	case "redis":
		return NewRedis(RedisOptions{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			Prefix:    cfg.RedisPrefix,
			Container: cfg.StorageContainer,
		})
	case "azure":
		return NewAzure(AzureOptions{
			Account:   cfg.AzureStorageAccount,
			Key:       cfg.AzureStorageKey,
			Endpoint:  cfg.AzureBlobEndpoint,
			Container: cfg.StorageContainer,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
