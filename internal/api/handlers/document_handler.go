package handlers

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	middleware "github.com/markdave123-py/rfpsearch/internal/api/middlewares"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
	"github.com/markdave123-py/rfpsearch/internal/services"
)

const multipartMemory = 32 << 20

type DocumentSaver interface {
	SaveDocuments(ctx context.Context, files []services.UploadFile, uploaderID *string, clientName string) ([]models.Document, error)
	Get(ctx context.Context, id string) (*models.Document, error)
}

type DocumentHandler struct {
	docs DocumentSaver
}

func NewDocumentHandler(docs DocumentSaver) *DocumentHandler {
	return &DocumentHandler{docs: docs}
}

type uploadResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Documents []models.Document `json:"documents"`
}

// UploadDocument handles a multipart upload with a clientName field and
// up to five files under "files".
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := int64(services.MaxUploadFiles*services.MaxUploadFileSize + multipartMemory)
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, "upload exceeds the size limit")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	clientName := r.FormValue("clientName")
	headers := r.MultipartForm.File["files"]

	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeAll(files)
			logger.Error("open uploaded file %s: %v", fh.Filename, err)
			writeError(w, http.StatusInternalServerError, "Failed to upload files")
			return
		}
		files = append(files, services.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}
	defer closeAll(files)

	var uploader *string
	if id, ok := middleware.UserIDFromContext(r.Context()); ok {
		uploader = &id
	}

	docs, err := h.docs.SaveDocuments(r.Context(), files, uploader, clientName)
	if err != nil {
		writeServiceError(w, err, "Failed to upload files")
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{
		Success:   true,
		Message:   "Files uploaded successfully",
		Documents: docs,
	})
}

// GetDocument handles GET /documents/{id}.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.docs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err, "Failed to load document")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "document": doc})
}

func closeAll(files []services.UploadFile) {
	for _, f := range files {
		if c, ok := f.Body.(multipart.File); ok {
			_ = c.Close()
		}
	}
}
