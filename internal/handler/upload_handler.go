package handler

import (
	"io"
	"net/http"

	"procurement-backend/internal/middleware"
	"procurement-backend/internal/storage"
	"procurement-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// 10 MB cap per document
const maxUploadSize = 10 << 20

type UploadHandler struct {
	store storage.DocumentStore
}

func NewUploadHandler(store storage.DocumentStore) *UploadHandler {
	return &UploadHandler{store: store}
}

func (h *UploadHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/uploads", middleware.RequireRole("admin"), h.Upload)
}

// Upload stores a PO/BAST document or proof photo and returns its URL; the
// caller then passes that URL to the relevant lifecycle operation.
func (h *UploadHandler) Upload(c *gin.Context) {
	kind := storage.Kind(c.PostForm("type"))
	switch kind {
	case storage.KindPODocument, storage.KindBASTDocument, storage.KindProofPhoto:
	default:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "type must be po, bast or proof"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "file is required"))
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "file exceeds 10MB limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to read upload"))
		return
	}

	url, err := h.store.Store(kind, fileHeader.Filename, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to store document"))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"url": url}))
}
