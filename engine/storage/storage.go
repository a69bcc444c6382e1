package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/gardenia/engine/config"
	"github.com/spaghettifunk/gardenia/engine/core"
)

type Driver string

const (
	DriverMemory Driver = "memory"
	DriverFS     Driver = "fs"
	DriverS3     Driver = "s3"
	DriverInline Driver = "inline"
)

const CONTENT_TYPE_PNG string = "image/png"

const EXPORT_PREFIX string = "exports"

var ErrNotFound = errors.New("artifact not found")

// Info describes a stored artifact. URL is where the enhancer can fetch it.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"contentType,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url"`
}

/**
 * @brief Where exported renders are published. Keys are write-once.
 */
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete reports whether the key existed.
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}

// NewKey returns a fresh key under prefix with the given extension.
func NewKey(prefix, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	key := uuid.NewString()
	if ext != "" {
		key += "." + ext
	}
	if prefix == "" {
		return key
	}
	return strings.TrimSuffix(prefix, "/") + "/" + key
}

// PublishPNG stores an encoded export under a new key.
func PublishPNG(ctx context.Context, store Store, png []byte) (Info, error) {
	key := NewKey(EXPORT_PREFIX, "png")
	info, err := store.Put(ctx, key, bytes.NewReader(png), CONTENT_TYPE_PNG)
	if err != nil {
		core.LogError("failed to publish export %s: %s", key, err)
		return Info{}, err
	}
	core.LogDebug("published %s (%d bytes) to %s", key, info.Size, store.Driver())
	return info, nil
}

/**
 * @brief Opens the configured store. Artifacts kept by the memory and fs
 * drivers are addressed under baseURL, which the HTTP API serves.
 */
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverMemory, "":
		return NewMemoryStore(cfg.BaseURL), nil
	case DriverFS:
		return NewFSStore(cfg.Dir, cfg.BaseURL)
	case DriverInline:
		return NewInlineStore(), nil
	case DriverS3:
		return NewS3Store(ctx, S3Config{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Endpoint:      cfg.S3.Endpoint,
			AccessKey:     cfg.S3.AccessKey,
			SecretKey:     cfg.S3.SecretKey,
			Prefix:        cfg.S3.Prefix,
			PathStyle:     cfg.S3.UsePathStyle,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		})
	}
	err := fmt.Errorf("unknown storage driver %q", cfg.Driver)
	core.LogError("%s", err)
	return nil, err
}

func joinURL(base, key string) string {
	if base == "" {
		return key
	}
	return strings.TrimSuffix(base, "/") + "/" + key
}

func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("empty key")
	}
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
