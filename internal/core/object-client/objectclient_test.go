package objectclient

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

func TestLocalClient_PutOpenDelete(t *testing.T) {
	ctx := context.Background()
	c, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	loc, err := c.Put(ctx, "acme/123-rfp.pdf", strings.NewReader("hello"), 5, "application/pdf")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(loc))
	assert.Equal(t, "123-rfp.pdf", filepath.Base(loc))

	rc, err := c.Open(ctx, loc)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	require.NoError(t, c.Delete(ctx, loc))
	_, err = os.Stat(loc)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, c.Delete(ctx, loc), "deleting twice is not an error")
}

func TestLocalClient_RejectsEscapingKeys(t *testing.T) {
	c, err := NewLocalClient(t.TempDir())
	require.NoError(t, err)

	_, err = c.Put(context.Background(), "../outside.pdf", strings.NewReader("x"), 1, "")
	assert.ErrorIs(t, err, core.ErrInvalidInput)
}

func TestParseS3Location(t *testing.T) {
	bucket, key, err := ParseS3Location("s3://rfp-docs/acme/1-a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "rfp-docs", bucket)
	assert.Equal(t, "acme/1-a.pdf", key)

	for _, bad := range []string{"/tmp/a.pdf", "s3://bucket", "s3:///key"} {
		_, _, err := ParseS3Location(bad)
		assert.ErrorIs(t, err, core.ErrInvalidInput, bad)
	}
}

type memClient struct {
	objects map[string]string
}

func (m *memClient) Put(context.Context, string, io.Reader, int64, string) (string, error) {
	return "", nil
}

func (m *memClient) Open(_ context.Context, location string) (io.ReadCloser, error) {
	body, ok := m.objects[location]
	if !ok {
		return nil, core.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (m *memClient) Delete(context.Context, string) error { return nil }

func TestMaterialize_LocalPathPassesThrough(t *testing.T) {
	path, cleanup, err := Materialize(context.Background(), &memClient{}, "/data/uploads/a.pdf")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "/data/uploads/a.pdf", path)
}

func TestMaterialize_DownloadsRemoteObject(t *testing.T) {
	m := &memClient{objects: map[string]string{"s3://b/acme/sheet.xlsx": "payload"}}

	path, cleanup, err := Materialize(context.Background(), m, "s3://b/acme/sheet.xlsx")
	require.NoError(t, err)

	assert.Equal(t, ".xlsx", filepath.Ext(path))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	cleanup()
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMaterialize_OpenError(t *testing.T) {
	_, cleanup, err := Materialize(context.Background(), &memClient{}, "s3://b/missing.pdf")
	defer cleanup()
	assert.ErrorIs(t, err, core.ErrNotFound)
}
