package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

// fakeDB covers the store methods the services call. Anything else panics
// through the nil embedded interface.
type fakeDB struct {
	core.DbClient

	mu        sync.Mutex
	docs      map[string]*models.Document
	existing  map[string]bool // filename|client
	createErr error
	pending   map[string][]string // document id -> pending chunk ids, "" for all
	failed    map[string]int64
	stats     *models.ChunkStats
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		docs:     map[string]*models.Document{},
		existing: map[string]bool{},
		pending:  map[string][]string{},
		failed:   map[string]int64{},
	}
}

func (f *fakeDB) CreateDocument(_ context.Context, doc *models.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *doc
	f.docs[doc.ID] = &cp
	f.existing[doc.Filename+"|"+doc.ClientName] = true
	return nil
}

func (f *fakeDB) GetDocumentByID(_ context.Context, id string) (*models.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDB) DocumentExists(_ context.Context, filename, clientName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.existing[filename+"|"+clientName], nil
}

func (f *fakeDB) ListPendingChunkIDs(_ context.Context, documentID string) ([]string, error) {
	return f.pending[documentID], nil
}

func (f *fakeDB) ResetFailedChunks(_ context.Context, documentID string) (int64, error) {
	n := f.failed[documentID]
	delete(f.failed, documentID)
	return n, nil
}

func (f *fakeDB) ChunkStatistics(context.Context) (*models.ChunkStats, error) {
	return f.stats, nil
}

type fakeObjects struct {
	mu      sync.Mutex
	put     map[string]string // key -> body
	deleted []string
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{put: map[string]string{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put[key] = string(b)
	return "/uploads/" + key, nil
}

func (f *fakeObjects) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeObjects) Delete(_ context.Context, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, location)
	return nil
}

type ingestCall struct{ docID, path string }

type fakeQueue struct {
	mu         sync.Mutex
	ingests    []ingestCall
	chunkJobs  [][]string
	docJobs    []string
	priorities []models.JobPriority
	err        error
}

func (q *fakeQueue) EnqueueIngest(_ context.Context, docID, path string) (*models.EnqueueResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.ingests = append(q.ingests, ingestCall{docID, path})
	return &models.EnqueueResult{JobID: fmt.Sprintf("ingest-%d", len(q.ingests)), DocumentID: docID, Queue: "critical"}, nil
}

func (q *fakeQueue) EnqueueEmbeddingForChunks(_ context.Context, ids []string, opts models.EnqueueOptions) (*models.EnqueueResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.chunkJobs = append(q.chunkJobs, append([]string(nil), ids...))
	q.priorities = append(q.priorities, opts.Priority)
	return &models.EnqueueResult{JobID: fmt.Sprintf("embed-%d", len(q.chunkJobs)), ChunkCount: len(ids), Queue: "low"}, nil
}

func (q *fakeQueue) EnqueueEmbeddingForDocument(_ context.Context, docID string, opts models.EnqueueOptions) (*models.EnqueueResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return nil, q.err
	}
	q.docJobs = append(q.docJobs, docID)
	q.priorities = append(q.priorities, opts.Priority)
	return &models.EnqueueResult{JobID: "embed-doc", DocumentID: docID, Queue: "low"}, nil
}

func upload(name, contentType, body string) UploadFile {
	return UploadFile{Filename: name, ContentType: contentType, Size: int64(len(body)), Body: strings.NewReader(body)}
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
