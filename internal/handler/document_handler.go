package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/quadrelay/quadrelay/internal/document"
)

// maxUploadBytes caps document uploads at 10 MB of raw file content.
const maxUploadBytes = 10 << 20

// DocumentHandler handles document upload, listing, and deletion.
type DocumentHandler struct {
	docs   *document.FileStore
	logger *slog.Logger
}

// DocumentHandlerOption is a functional option for configuring DocumentHandler.
type DocumentHandlerOption func(*DocumentHandler)

// WithDocumentLogger sets a custom logger.
func WithDocumentLogger(logger *slog.Logger) DocumentHandlerOption {
	return func(h *DocumentHandler) {
		h.logger = logger
	}
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(docs *document.FileStore, opts ...DocumentHandlerOption) *DocumentHandler {
	h := &DocumentHandler{
		docs:   docs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleUpload handles POST /api/documents (multipart, field "file").
// The file is parsed to plain text immediately; only the extracted text is
// stored.
func (h *DocumentHandler) HandleUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file upload is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10 MB upload limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("upload open failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		h.logger.Error("upload read failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if len(content) > maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10 MB upload limit"})
		return
	}

	text, err := document.Parse(fileHeader.Filename, content)
	if err != nil {
		var unsupported *document.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("%s. Supported types: %s",
					unsupported.Error(), strings.Join(document.SupportedExtensions(), ", ")),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	parts := strings.Split(strings.ToLower(fileHeader.Filename), ".")
	doc := document.Stored{
		ID:       uuid.NewString(),
		Filename: fileHeader.Filename,
		Content:  text,
		FileType: parts[len(parts)-1],
		Size:     len(content),
	}
	if err := h.docs.Add(doc); err != nil {
		h.logger.Error("document persist failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("document uploaded",
		slog.String("id", doc.ID),
		slog.String("filename", doc.Filename),
		slog.Int("size", doc.Size),
	)

	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"id":        doc.ID,
		"filename":  doc.Filename,
		"content":   doc.Content,
		"file_type": doc.FileType,
		"size":      doc.Size,
	})
}

// HandleList handles GET /api/documents.
func (h *DocumentHandler) HandleList(c *gin.Context) {
	docs := h.docs.All()
	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"count":     len(docs),
	})
}

// HandleDelete handles DELETE /api/documents/:id.
func (h *DocumentHandler) HandleDelete(c *gin.Context) {
	id := c.Param("id")
	removed, ok := h.docs.Delete(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Document '%s' deleted", removed.Filename),
	})
}

// HandleClear handles DELETE /api/documents.
func (h *DocumentHandler) HandleClear(c *gin.Context) {
	count := h.docs.Clear()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Cleared %d documents", count),
		"count":   count,
	})
}

// HandleStats handles GET /api/documents/stats.
func (h *DocumentHandler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.docs.Stats())
}
