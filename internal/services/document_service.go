package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/logger"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

const (
	MaxUploadFiles    = 5
	MaxUploadFileSize = 10 << 20
)

// Accepted extensions and their canonical MIME types.
var allowedTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// UploadFile is one file from an upload request.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type DocumentService struct {
	db      core.DocumentStore
	storage core.ObjectClient
	queue   core.JobQueue
	now     func() time.Time
}

func NewDocumentService(db core.DocumentStore, storage core.ObjectClient, queue core.JobQueue) *DocumentService {
	return &DocumentService{db: db, storage: storage, queue: queue, now: time.Now}
}

// SaveDocuments stores the files for clientName, records them with status
// uploaded and enqueues one ingest job per document. The whole request is
// validated, duplicates included, before anything is stored.
func (s *DocumentService) SaveDocuments(ctx context.Context, files []UploadFile, uploaderID *string, clientName string) ([]models.Document, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, fmt.Errorf("%w: clientName is required", core.ErrInvalidInput)
	}
	if err := s.validate(ctx, files, clientName); err != nil {
		return nil, err
	}

	saved := make([]models.Document, 0, len(files))
	for _, f := range files {
		doc, err := s.save(ctx, f, uploaderID, clientName)
		if err != nil {
			return saved, err
		}
		saved = append(saved, *doc)
	}
	return saved, nil
}

func (s *DocumentService) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.db.GetDocumentByID(ctx, id)
}

func (s *DocumentService) validate(ctx context.Context, files []UploadFile, clientName string) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: no files uploaded", core.ErrInvalidInput)
	}
	if len(files) > MaxUploadFiles {
		return fmt.Errorf("%w: at most %d files per upload", core.ErrInvalidInput, MaxUploadFiles)
	}

	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		name := cleanFilename(f.Filename)
		if name == "" {
			return fmt.Errorf("%w: file name is required", core.ErrInvalidInput)
		}
		if _, err := mimeTypeFor(name, f.ContentType); err != nil {
			return err
		}
		if f.Size > MaxUploadFileSize {
			return fmt.Errorf("%w: %s exceeds the %d MB limit", core.ErrInvalidInput, name, MaxUploadFileSize>>20)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: %s appears twice in the upload", core.ErrDuplicate, name)
		}
		seen[name] = struct{}{}

		exists, err := s.db.DocumentExists(ctx, name, clientName)
		if err != nil {
			return fmt.Errorf("check duplicate %s: %w", name, err)
		}
		if exists {
			return fmt.Errorf("%w: client %s already has %s", core.ErrDuplicate, clientName, name)
		}
	}
	return nil
}

func (s *DocumentService) save(ctx context.Context, f UploadFile, uploaderID *string, clientName string) (*models.Document, error) {
	name := cleanFilename(f.Filename)
	mime, _ := mimeTypeFor(name, f.ContentType)
	now := s.now().UTC()

	key := s.objectKey(clientName, name, now)
	location, err := s.storage.Put(ctx, key, f.Body, f.Size, mime)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}

	doc := &models.Document{
		ID:         uuid.NewString(),
		Filename:   name,
		Path:       location,
		UploadedBy: uploaderID,
		ClientName: clientName,
		Size:       f.Size,
		MimeType:   mime,
		Status:     models.DocumentUploaded,
		UploadedAt: now,
	}
	if err := s.db.CreateDocument(ctx, doc); err != nil {
		if derr := s.storage.Delete(ctx, location); derr != nil {
			logger.Warn("failed to remove %s after insert error: %v", location, derr)
		}
		return nil, fmt.Errorf("create document %s: %w", name, err)
	}

	if _, err := s.queue.EnqueueIngest(ctx, doc.ID, doc.Path); err != nil {
		// The row stays in uploaded; rfpctl ingest re-enqueues it.
		return nil, fmt.Errorf("enqueue ingest for %s: %w", doc.ID, err)
	}
	logger.Info("stored %s for client %s as document %s", name, clientName, doc.ID)
	return doc, nil
}

// objectKey lays files out as <client>/<unix-ms>-<filename>.
func (s *DocumentService) objectKey(clientName, filename string, at time.Time) string {
	return path.Join(safeSegment(clientName), strconv.FormatInt(at.UnixMilli(), 10)+"-"+filename)
}

// mimeTypeFor accepts a file by extension. A declared content type must
// agree with it unless it is generic.
func mimeTypeFor(filename, declared string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	want, ok := allowedTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: only PDF, DOCX, and XLSX files are allowed (got %s)", core.ErrUnsupportedType, filename)
	}
	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	switch declared {
	case "", "application/octet-stream", want:
		return want, nil
	default:
		return "", fmt.Errorf("%w: %s declared as %s", core.ErrUnsupportedType, filename, declared)
	}
}

func cleanFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = path.Base(name)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

func safeSegment(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(s))
	if s == "." || s == ".." {
		return "_"
	}
	return s
}
