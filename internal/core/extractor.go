package core

import "context"

// DocumentExtractor pulls raw text out of a stored file.
// Unsupported extensions fail with ErrUnsupportedType.
type DocumentExtractor interface {
	ExtractText(ctx context.Context, path string) (string, error)
}
