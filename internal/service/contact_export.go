package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hakchin/ppst/internal/dto"
	"github.com/hakchin/ppst/internal/repository"
)

// ErrUnsupportedExportFormat indicates an export format other than ndjson or json.
var ErrUnsupportedExportFormat = errors.New("unsupported export format")

// ContactExporter renders every stored inquiry in one of the export formats.
type ContactExporter struct {
	repo repository.ContactRepository
}

// NewContactExporter constructs an exporter reading from repo.
func NewContactExporter(repo repository.ContactRepository) *ContactExporter {
	return &ContactExporter{repo: repo}
}

// Export lists the store once and serializes the result. NDJSON puts one compact document
// per line without a trailing newline; JSON is a two-space indented array.
func (e *ContactExporter) Export(ctx context.Context, format dto.ExportFormat) (string, error) {
	if format != dto.ExportNDJSON && format != dto.ExportJSON {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedExportFormat, format)
	}

	docs, err := e.repo.List(ctx)
	if err != nil {
		return "", err
	}
	if docs == nil {
		docs = []repository.Document{}
	}

	if format == dto.ExportJSON {
		body, err := repository.MarshalPretty(docs)
		if err != nil {
			return "", &repository.SerializationError{Op: "export", Err: err}
		}
		return string(body), nil
	}

	var out strings.Builder
	for i, doc := range docs {
		line, err := repository.MarshalCompact(doc)
		if err != nil {
			return "", &repository.SerializationError{Op: "export", Err: err}
		}
		if i > 0 {
			out.WriteByte('\n')
		}
		out.Write(line)
	}
	return out.String(), nil
}
