package storage

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage writes photos under basePath; the router serves that
// directory at baseURL.
type LocalStorage struct {
	basePath string
	baseURL  string
}

func NewLocalStorage(basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	return &LocalStorage{
		basePath: filepath.Clean(basePath),
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload writes to a temp file first so a failed copy never leaves a
// truncated photo behind.
func (l *LocalStorage) Upload(ctx context.Context, request *UploadRequest) (*UploadResponse, error) {
	target, err := l.resolve(request.Key)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(l.basePath, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	sum := md5.New()
	size, err := io.Copy(io.MultiWriter(tmp, sum), request.Reader)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", request.Key, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", request.Key, err)
	}

	return &UploadResponse{
		Key:  request.Key,
		URL:  l.URL(request.Key),
		Size: size,
		ETag: hex.EncodeToString(sum.Sum(nil)),
	}, nil
}

func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	target, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (l *LocalStorage) URL(key string) string {
	return l.baseURL + "/" + strings.TrimLeft(key, "/")
}

// resolve refuses keys that would land outside basePath.
func (l *LocalStorage) resolve(key string) (string, error) {
	target := filepath.Join(l.basePath, filepath.Clean("/"+key))
	if target == l.basePath || !strings.HasPrefix(target, l.basePath+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return target, nil
}
