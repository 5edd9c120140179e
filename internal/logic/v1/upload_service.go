package v1

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/classifieds-service/internal/attach"
	"github.com/duynhne/classifieds-service/internal/core/domain"
	"github.com/duynhne/classifieds-service/internal/storage"
	"github.com/duynhne/classifieds-service/middleware"
)

// FilesPath is the route prefix uploaded files are served under
const FilesPath = "/api/files/"

// UploadResult is the body of a successful upload
type UploadResult struct {
	URL string `json:"url"`
}

// UploadService checks, normalizes and stores uploaded files
type UploadService struct {
	store         storage.Store
	publicBaseURL string
	maxWidth      int
}

// NewUploadService creates a new upload service
func NewUploadService(store storage.Store, publicBaseURL string, maxWidth int) *UploadService {
	return &UploadService{store: store, publicBaseURL: publicBaseURL, maxWidth: maxWidth}
}

// Upload reads one file, checks its sniffed type and size, downsizes large images and stores it.
// The returned URL is stable and can be referenced from listings and signup documents.
func (s *UploadService) Upload(ctx context.Context, r io.Reader) (*UploadResult, error) {
	ctx, span := middleware.StartSpan(ctx, "upload.save", trace.WithAttributes(
		attribute.String("layer", "logic"),
	))
	defer span.End()

	data, err := io.ReadAll(io.LimitReader(r, attach.MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	contentType := mimetype.Detect(data).String()
	span.SetAttributes(
		attribute.String("upload.content_type", contentType),
		attribute.Int("upload.size", len(data)),
	)
	if err := attach.Check(contentType, int64(len(data))); err != nil {
		return nil, err
	}

	data, err = storage.Downscale(data, contentType, s.maxWidth)
	if err != nil {
		return nil, fmt.Errorf("downscale %s: %w", contentType, err)
	}
	key, err := s.store.Save(ctx, data, contentType)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("store upload: %w", err)
	}
	span.SetAttributes(attribute.String("upload.key", key))
	middleware.RecordUpload(len(data))
	return &UploadResult{URL: s.publicBaseURL + FilesPath + key}, nil
}

// Open returns a stored file for serving
func (s *UploadService) Open(ctx context.Context, key string) (*storage.Object, error) {
	obj, err := s.store.Open(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("open %q: %w", key, domain.ErrFileNotFound)
		}
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	return obj, nil
}
