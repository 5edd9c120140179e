// Package storage keeps uploaded files and serves them back by key.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/config"
)

// ErrNotFound is returned by Open for an unknown key.
var ErrNotFound = errors.New("stored file not found")

// Object is an opened stored file. Callers must close Body.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// Store saves upload bodies and opens them by key.
type Store interface {
	Save(ctx context.Context, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (*Object, error)
	Close(ctx context.Context) error
}

// New builds the store selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", config.StorageLocal:
		logger.Info("Using local upload storage", zap.String("dir", cfg.LocalDir))
		return NewLocal(cfg.LocalDir)
	case config.StorageGridFS:
		logger.Info("Using GridFS upload storage", zap.String("db", cfg.MongoDB), zap.String("bucket", cfg.GridFSBkt))
		return NewGridFS(ctx, cfg.MongoURI, cfg.MongoDB, cfg.GridFSBkt)
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// Downscale shrinks jpeg and png images wider than maxWidth, keeping the aspect ratio.
// Other types and images already small enough are returned unchanged.
func Downscale(data []byte, contentType string, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 || (contentType != "image/jpeg" && contentType != "image/png") {
		return data, nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= maxWidth {
		return data, nil
	}

	var img image.Image
	if contentType == "image/png" {
		img, err = png.Decode(bytes.NewReader(data))
	} else {
		img, err = jpeg.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	resized := resize.Resize(uint(maxWidth), 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if contentType == "image/png" {
		err = png.Encode(&buf, resized)
	} else {
		err = jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 80})
	}
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
