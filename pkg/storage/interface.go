package storage

import (
	"context"
	"io"
)

// StorageProvider stores user photos and returns the public location they
// are served from. Keys are flat file names such as user-<id>-<uuid>.jpeg.
type StorageProvider interface {
	Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// ImmutableCacheControl suits keys that are never rewritten.
const ImmutableCacheControl = "public, max-age=31536000, immutable"

type UploadRequest struct {
	Key          string            `json:"key"`
	Reader       io.Reader         `json:"-"`
	ContentType  string            `json:"content_type"`
	Size         int64             `json:"size"`
	Metadata     map[string]string `json:"metadata"`
	CacheControl string            `json:"cache_control"`
}

type UploadResponse struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	ETag string `json:"etag"`
}

func cacheControl(request *UploadRequest) string {
	if request.CacheControl != "" {
		return request.CacheControl
	}
	return ImmutableCacheControl
}
