package ingestion_engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/xuri/excelize/v2"

	"github.com/markdave123-py/rfpsearch/internal/core"
)

var _ core.DocumentExtractor = (*FileExtractor)(nil)

// FileExtractor reads PDF and DOCX through docconv and XLSX through excelize.
type FileExtractor struct{}

func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// ExtractText picks a parser from the file extension.
func (e *FileExtractor) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("file not readable: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return convertWith(path, docconv.ConvertPDF)
	case ".docx":
		return convertWith(path, docconv.ConvertDocx)
	case ".xlsx":
		return extractXlsx(path)
	default:
		if ext == "" {
			ext = "unknown"
		}
		return "", fmt.Errorf("%w: %s (supported: .pdf, .docx, .xlsx)", core.ErrUnsupportedType, ext)
	}
}

func convertWith(path string, convert func(r io.Reader) (string, map[string]string, error)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	body, _, err := convert(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return body, nil
}

// extractXlsx renders every sheet as "# <name>" followed by its rows as CSV.
// Blank rows and empty sheets are skipped.
func extractXlsx(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	var pieces []string
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		for _, row := range rows {
			if blankRow(row) {
				continue
			}
			if err := w.Write(row); err != nil {
				return "", fmt.Errorf("render sheet %q: %w", sheet, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return "", fmt.Errorf("render sheet %q: %w", sheet, err)
		}

		if body := strings.TrimSpace(buf.String()); body != "" {
			pieces = append(pieces, "# "+sheet+"\n"+body)
		}
	}
	return strings.Join(pieces, "\n\n"), nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
