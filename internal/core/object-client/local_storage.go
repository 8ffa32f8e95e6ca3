package objectclient

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

var _ core.ObjectClient = (*LocalClient)(nil)

// LocalClient keeps uploads on local disk under a root directory.
type LocalClient struct {
	root string
}

func NewLocalClient(dir string) (*LocalClient, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalClient{root: root}, nil
}

// Put writes the body to root/key and returns the absolute path.
func (c *LocalClient) Put(ctx context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	path, err := c.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}

func (c *LocalClient) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (c *LocalClient) Delete(_ context.Context, location string) error {
	if err := os.Remove(location); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// resolve keeps keys inside the root directory.
func (c *LocalClient) resolve(key string) (string, error) {
	path := filepath.Join(c.root, filepath.FromSlash(key))
	if path != c.root && !strings.HasPrefix(path, c.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: key escapes upload dir: %q", core.ErrInvalidInput, key)
	}
	return path, nil
}
