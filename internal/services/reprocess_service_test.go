package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/rfpsearch/internal/core"
	"github.com/markdave123-py/rfpsearch/internal/models"
)

func chunkIDs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("c%03d", i)
	}
	return out
}

func TestReprocessPending_Batches(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{}
	db.pending[""] = chunkIDs(120)
	s := NewReprocessService(db, q)

	sum, err := s.ReprocessPending(context.Background(), ReprocessOptions{})
	require.NoError(t, err)

	assert.Equal(t, 120, sum.Pending)
	require.Len(t, q.chunkJobs, 3)
	assert.Len(t, q.chunkJobs[0], 50)
	assert.Len(t, q.chunkJobs[1], 50)
	assert.Len(t, q.chunkJobs[2], 20)
	assert.Equal(t, "c050", q.chunkJobs[1][0])
	assert.Len(t, sum.Jobs, 3)
	for _, p := range q.priorities {
		assert.Equal(t, models.PriorityLow, p)
	}
}

func TestReprocessPending_CustomBatchSize(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{}
	db.pending[""] = chunkIDs(7)

	_, err := NewReprocessService(db, q).ReprocessPending(context.Background(), ReprocessOptions{BatchSize: 3})
	require.NoError(t, err)
	assert.Len(t, q.chunkJobs, 3)
}

func TestReprocessPending_NothingPending(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{}

	sum, err := NewReprocessService(db, q).ReprocessPending(context.Background(), ReprocessOptions{})
	require.NoError(t, err)
	assert.Zero(t, sum.Pending)
	assert.Empty(t, sum.Jobs)
	assert.Empty(t, q.chunkJobs)
}

func TestReprocessPending_IncludeFailed(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{}
	db.failed[""] = 4
	db.pending[""] = chunkIDs(4)

	sum, err := NewReprocessService(db, q).ReprocessPending(context.Background(), ReprocessOptions{IncludeFailed: true})
	require.NoError(t, err)
	assert.Equal(t, int64(4), sum.Reset)
	assert.Len(t, q.chunkJobs, 1)
}

func TestReprocessPending_Document(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{}
	db.docs["doc-1"] = &models.Document{ID: "doc-1"}
	db.pending["doc-1"] = chunkIDs(80)

	sum, err := NewReprocessService(db, q).ReprocessPending(context.Background(), ReprocessOptions{DocumentID: "doc-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"doc-1"}, q.docJobs)
	assert.Empty(t, q.chunkJobs)
	require.Len(t, sum.Jobs, 1)
	assert.Equal(t, "doc-1", sum.Jobs[0].DocumentID)
}

func TestReprocessPending_UnknownDocument(t *testing.T) {
	_, err := NewReprocessService(newFakeDB(), &fakeQueue{}).ReprocessPending(context.Background(), ReprocessOptions{DocumentID: "nope"})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestReprocessPending_EnqueueErrorKeepsPartialSummary(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{err: errors.New("redis down")}
	db.pending[""] = chunkIDs(10)

	sum, err := NewReprocessService(db, q).ReprocessPending(context.Background(), ReprocessOptions{})
	require.Error(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 10, sum.Pending)
	assert.Empty(t, sum.Jobs)
}

func TestReingest(t *testing.T) {
	db, q := newFakeDB(), &fakeQueue{}
	db.docs["doc-1"] = &models.Document{ID: "doc-1", Path: "/uploads/Acme/1-a.pdf"}
	s := NewReprocessService(db, q)

	res, err := s.Reingest(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", res.DocumentID)
	assert.Equal(t, []ingestCall{{"doc-1", "/uploads/Acme/1-a.pdf"}}, q.ingests)

	_, err = s.Reingest(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStats(t *testing.T) {
	db := newFakeDB()
	db.stats = &models.ChunkStats{Total: 10, Completed: 7, Pending: 2, Failed: 1}

	got, err := NewReprocessService(db, &fakeQueue{}).Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, db.stats, got)
}
