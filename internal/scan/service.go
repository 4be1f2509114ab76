// Package scan coordinates one extraction run: load document and
// condition, call the vision model, reconcile its answer against the
// declared field names, and persist the results atomically.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ksugimori/docscan/constants"
	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/extract"
	"github.com/ksugimori/docscan/internal/filestore"
	"github.com/ksugimori/docscan/internal/repository"
)

// ErrScanInFlight is returned when the same (document, condition) pair is
// already being scanned. Callers surface it and do not queue.
var ErrScanInFlight = errors.New("scan already in flight for this document and condition")

// Outcome is the result of a successful scan: the reconciled pairs that
// were written, plus the response keys that were discarded.
type Outcome struct {
	DocumentID  uint
	ConditionID uint
	Fields      []repository.FieldValue
	Dropped     []string
	ScannedAt   time.Time
}

type pairKey struct {
	documentID  uint
	conditionID uint
}

// Service is the scan orchestrator.
type Service struct {
	documents  repository.DocumentRepository
	conditions repository.ConditionRepository
	results    repository.ExtractionResultRepository
	files      *filestore.Store
	extractor  extract.FieldExtractor
	logger     *slog.Logger

	mu       sync.Mutex
	inflight map[pairKey]struct{}
}

func NewService(
	documents repository.DocumentRepository,
	conditions repository.ConditionRepository,
	results repository.ExtractionResultRepository,
	files *filestore.Store,
	extractor extract.FieldExtractor,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		documents:  documents,
		conditions: conditions,
		results:    results,
		files:      files,
		extractor:  extractor,
		logger:     logger,
		inflight:   make(map[pairKey]struct{}),
	}
}

// Scan runs one extraction for (documentID, conditionID). It is exactly
// one attempt: failures leave prior results and the document's scanned
// state untouched, and the user may retry. A successful re-scan replaces
// the pair's rows wholesale, so running twice converges to the same set.
func (s *Service) Scan(ctx context.Context, documentID, conditionID uint) (*Outcome, error) {
	if conditionID == 0 {
		return nil, common.ErrNoConditionSelected
	}
	if s.extractor == nil || !s.extractor.Configured() {
		return nil, common.ErrMissingCredential
	}

	key := pairKey{documentID, conditionID}
	if !s.acquire(key) {
		return nil, ErrScanInFlight
	}
	defer s.release(key)

	start := time.Now()
	s.logger.Info("scan.start", "document_id", documentID, "condition_id", conditionID)

	doc, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	cond, err := s.conditions.Get(ctx, conditionID)
	if err != nil {
		return nil, err
	}
	declared := cond.FieldNames()

	absPath, err := s.files.Resolve(doc.StoragePath)
	if err != nil {
		s.logger.Error("scan.file_missing", "document_id", documentID, "storage_path", doc.StoragePath)
		return nil, err
	}

	mimeType := constants.MIMEType(doc.FileKind)
	if mimeType == "" {
		// Multi-page formats must be pre-converted to images by the caller.
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedKind, doc.FileKind)
	}

	image, err := os.ReadFile(absPath)
	if err != nil {
		return nil, common.WrapError(err, "read image")
	}

	fields, err := s.extractor.Extract(ctx, extract.Request{
		Image:      image,
		MIMEType:   mimeType,
		FieldNames: declared,
	})
	if err != nil {
		s.logger.Error("scan.extract.failed",
			"document_id", documentID,
			"condition_id", conditionID,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}
	if len(fields.Pairs) == 0 {
		s.logger.Error("scan.extract.empty",
			"document_id", documentID,
			"condition_id", conditionID,
			"malformed_lines", fields.Malformed,
		)
		return nil, fmt.Errorf("%w: response contained no field pairs", common.ErrExtractionFailed)
	}

	// Nothing may be committed once the caller has abandoned the scan.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	retained, dropped := Reconcile(fields, declared)
	for _, k := range dropped {
		s.logger.Warn("scan.reconcile.dropped_key",
			"document_id", documentID,
			"condition_id", conditionID,
			"key", k,
		)
	}

	scannedAt := time.Now().UTC()
	if err := s.results.ReplaceScan(ctx, documentID, conditionID, retained, scannedAt); err != nil {
		return nil, err
	}

	s.logger.Info("scan.ok",
		"document_id", documentID,
		"condition_id", conditionID,
		"stored", len(retained),
		"dropped", len(dropped),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Outcome{
		DocumentID:  documentID,
		ConditionID: conditionID,
		Fields:      retained,
		Dropped:     dropped,
		ScannedAt:   scannedAt,
	}, nil
}

// Reconcile filters the model's pairs down to those whose name exactly
// matches a declared field name (case-sensitive). Unmatched keys are
// returned separately so callers can log them; they are never stored.
// Declared fields missing from the response produce no pair at all.
func Reconcile(fields extract.Fields, declared []string) ([]repository.FieldValue, []string) {
	names := make(map[string]struct{}, len(declared))
	for _, n := range declared {
		names[n] = struct{}{}
	}
	var retained []repository.FieldValue
	var dropped []string
	for _, p := range fields.Pairs {
		if _, ok := names[p.Name]; ok {
			retained = append(retained, repository.FieldValue{Name: p.Name, Value: p.Value})
		} else {
			dropped = append(dropped, p.Name)
		}
	}
	return retained, dropped
}

func (s *Service) acquire(key pairKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(key pairKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}
