// Package export pivots per-field extraction rows into one wide table per
// document list and serializes it to CSV or an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/ksugimori/docscan/internal/repository"
)

// SentinelHeader is the single column of an export with no scanned
// documents.
const SentinelHeader = "no scanned documents"

// FilenameColumn heads the first column of every non-empty export.
const FilenameColumn = "filename"

// Format selects the serialization target.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a configured format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown export format %q", s)
	}
}

// Ext returns the file extension for the format.
func (f Format) Ext() string { return string(f) }

// Table is the projected wide table: Header[0] is the filename column,
// the rest one column per distinct field name, sorted lexicographically.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the projection found no scanned documents.
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Service projects extraction results for export.
type Service struct {
	documents repository.DocumentRepository
	logger    *slog.Logger
}

func NewService(documents repository.DocumentRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{documents: documents, logger: logger}
}

// Project builds the wide table for a list: one row per scanned document,
// one column per distinct field name encountered across all conditions
// ever scanned for those documents. A cell is the extracted value when
// present, else "".
func (s *Service) Project(ctx context.Context, listID uint) (*Table, error) {
	start := time.Now()

	docs, err := s.documents.ListScannedByList(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("query scanned documents: %w", err)
	}
	if len(docs) == 0 {
		s.logger.Info("export.project.empty", "list_id", listID)
		return &Table{Header: []string{SentinelHeader}}, nil
	}

	nameSet := make(map[string]struct{})
	for _, doc := range docs {
		for _, r := range doc.Results {
			nameSet[r.FieldName] = struct{}{}
		}
	}
	fieldNames := make([]string, 0, len(nameSet))
	for n := range nameSet {
		fieldNames = append(fieldNames, n)
	}
	sort.Strings(fieldNames)

	header := append([]string{FilenameColumn}, fieldNames...)
	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		values := make(map[string]string, len(doc.Results))
		for _, r := range doc.Results {
			values[r.FieldName] = r.Value()
		}
		row := make([]string, 0, len(header))
		row = append(row, doc.Filename)
		for _, n := range fieldNames {
			row = append(row, values[n])
		}
		rows = append(rows, row)
	}

	s.logger.Info("export.project.ok",
		"list_id", listID,
		"documents", len(rows),
		"columns", len(header),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Table{Header: header, Rows: rows}, nil
}

// Serialize renders the table in the requested format.
func (s *Service) Serialize(t *Table, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return writeCSV(t)
	case FormatXLSX:
		return writeXLSX(t)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

// ExportFile projects a list and writes the serialized table to path.
func (s *Service) ExportFile(ctx context.Context, listID uint, format Format, path string) error {
	t, err := s.Project(ctx, listID)
	if err != nil {
		return err
	}
	data, err := s.Serialize(t, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	s.logger.Info("export.file.ok", "list_id", listID, "format", string(format), "path", path, "bytes", len(data))
	return nil
}
