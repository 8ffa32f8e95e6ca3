package objectclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	cfg "github.com/markdave123-py/rfpsearch/internal/config"
	"github.com/markdave123-py/rfpsearch/internal/core"
)

// New returns the backend selected by STORAGE_BACKEND.
func New(ctx context.Context, c *cfg.Config) (core.ObjectClient, error) {
	switch c.StorageBackend {
	case "s3":
		return NewS3Client(ctx, c)
	case "local", "":
		return NewLocalClient(c.UploadDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// Materialize returns a local path for location. Local paths are returned
// as is; remote objects are downloaded to a temp file with the same
// extension, removed by cleanup.
func Materialize(ctx context.Context, obj core.ObjectClient, location string) (path string, cleanup func(), err error) {
	noop := func() {}
	if !strings.HasPrefix(location, s3Scheme) {
		return location, noop, nil
	}

	rc, err := obj.Open(ctx, location)
	if err != nil {
		return "", noop, err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "rfp-*"+filepath.Ext(location))
	if err != nil {
		return "", noop, fmt.Errorf("create temp file: %w", err)
	}
	cleanup = func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("download %s: %w", location, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("close temp file: %w", err)
	}
	return tmp.Name(), cleanup, nil
}
