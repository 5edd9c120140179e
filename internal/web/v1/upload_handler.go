package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/duynhne/classifieds-service/internal/attach"
	logicv1 "github.com/duynhne/classifieds-service/internal/logic/v1"
)

// multipart framing allowance on top of the file ceiling
const uploadOverhead = 1 << 20

// UploadHandler serves file uploads and downloads
type UploadHandler struct {
	service *logicv1.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service *logicv1.UploadService) *UploadHandler {
	return &UploadHandler{service: service}
}

// Upload handles POST /api/upload with a multipart "file" field
func (h *UploadHandler) Upload(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, attach.MaxFileSize+uploadOverhead)
	header, err := c.FormFile("file")
	if err != nil {
		span.RecordError(err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			logger.Warn("Upload body too large", zap.Int64("limit", tooLarge.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds 5 MB"})
			return
		}
		logger.Warn("Upload without file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}
	if header.Size > attach.MaxFileSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds 5 MB"})
		return
	}

	file, err := header.Open()
	if err != nil {
		writeError(c, span, logger, "Failed to open upload", err)
		return
	}
	defer file.Close()

	res, err := h.service.Upload(ctx, file)
	if err != nil {
		writeError(c, span, logger, "Failed to store upload", err)
		return
	}

	logger.Info("File uploaded", zap.String("url", res.URL), zap.Int64("size", header.Size))
	c.JSON(http.StatusCreated, res)
}

// Serve handles GET /api/files/:key
func (h *UploadHandler) Serve(c *gin.Context) {
	ctx, span, logger := startRequest(c)
	defer span.End()

	obj, err := h.service.Open(ctx, c.Param("key"))
	if err != nil {
		writeError(c, span, logger, "Failed to open file", err)
		return
	}
	defer obj.Body.Close()

	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, map[string]string{
		"Cache-Control": "public, max-age=31536000, immutable",
	})
}
