package scan

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/entity"
	"github.com/ksugimori/docscan/internal/extract"
	"github.com/ksugimori/docscan/internal/filestore"
	"github.com/ksugimori/docscan/internal/repository"
)

type fakeExtractor struct {
	fields     extract.Fields
	err        error
	configured bool
	calls      int
	cancel     context.CancelFunc // when set, cancels the caller's ctx before returning
	release    chan struct{}      // when set, Extract blocks until closed
	started    chan struct{}
}

func (f *fakeExtractor) Extract(ctx context.Context, _ extract.Request) (extract.Fields, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
		f.started = nil
	}
	if f.cancel != nil {
		f.cancel()
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return extract.Fields{}, ctx.Err()
		}
	}
	return f.fields, f.err
}

func (f *fakeExtractor) Configured() bool { return f.configured }

type fixture struct {
	db      *gorm.DB
	svc     *Service
	docs    repository.DocumentRepository
	results repository.ExtractionResultRepository
	files   *filestore.Store

	docID  uint
	condID uint
}

func newFixture(t *testing.T, ex extract.FieldExtractor) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	db, err := repository.Open(context.Background(), repository.Config{
		Path: filepath.Join(dir, "test.db"),
	}, log)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { repository.Close(db, log) })

	files, err := filestore.New(filepath.Join(dir, "images"), log)
	if err != nil {
		t.Fatalf("filestore: %v", err)
	}

	ctx := context.Background()
	conds := repository.NewConditionRepository(db, log)
	lists := repository.NewDocumentListRepository(db, log)
	docs := repository.NewDocumentRepository(db, log)
	results := repository.NewExtractionResultRepository(db, log)

	cond, err := conds.Create(ctx, "invoices", []string{"Invoice No", "Total"})
	if err != nil {
		t.Fatalf("create condition: %v", err)
	}
	list, err := lists.Create(ctx, "march")
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	src := filepath.Join(dir, "invoice.png")
	if err := os.WriteFile(src, []byte("not a real png"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	storagePath, kind, err := files.SaveUpload(list.ID, src, "invoice.png")
	if err != nil {
		t.Fatalf("save upload: %v", err)
	}
	doc, err := docs.Create(ctx, list.ID, "invoice.png", storagePath, kind)
	if err != nil {
		t.Fatalf("create document: %v", err)
	}

	return &fixture{
		db:      db,
		svc:     NewService(docs, conds, results, files, ex, log),
		docs:    docs,
		results: results,
		files:   files,
		docID:   doc.ID,
		condID:  cond.ID,
	}
}

func pairs(names ...string) extract.Fields {
	var f extract.Fields
	for i := 0; i+1 < len(names); i += 2 {
		f.Pairs = append(f.Pairs, extract.Pair{Name: names[i], Value: names[i+1]})
	}
	return f
}

func TestScanStoresReconciledFields(t *testing.T) {
	ex := &fakeExtractor{
		configured: true,
		fields:     pairs("Invoice No", "INV1", "Total", "500", "NotAField", "xyz"),
	}
	fx := newFixture(t, ex)

	out, err := fx.svc.Scan(context.Background(), fx.docID, fx.condID)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(out.Fields) != 2 {
		t.Fatalf("stored fields = %d, want 2", len(out.Fields))
	}
	if len(out.Dropped) != 1 || out.Dropped[0] != "NotAField" {
		t.Errorf("dropped = %v, want [NotAField]", out.Dropped)
	}

	rows, err := fx.results.ListByDocument(context.Background(), fx.docID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (unmatched key must not be stored)", len(rows))
	}

	doc, err := fx.docs.Get(context.Background(), fx.docID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if !doc.IsScanned {
		t.Error("document not marked scanned")
	}
}

func TestScanRerunReplacesResults(t *testing.T) {
	ex := &fakeExtractor{configured: true, fields: pairs("Total", "500")}
	fx := newFixture(t, ex)
	ctx := context.Background()

	if _, err := fx.svc.Scan(ctx, fx.docID, fx.condID); err != nil {
		t.Fatalf("first scan: %v", err)
	}
	ex.fields = pairs("Total", "750", "Invoice No", "INV9")
	if _, err := fx.svc.Scan(ctx, fx.docID, fx.condID); err != nil {
		t.Fatalf("second scan: %v", err)
	}

	rows, err := fx.results.ListByDocument(ctx, fx.docID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (re-scan replaces, never accumulates)", len(rows))
	}
	for _, row := range rows {
		if row.FieldName == "Total" && row.Value() != "750" {
			t.Errorf("Total = %q, want 750", row.Value())
		}
	}
}

func TestScanEmptyResponseLeavesStateUntouched(t *testing.T) {
	ex := &fakeExtractor{configured: true} // zero pairs back
	fx := newFixture(t, ex)

	_, err := fx.svc.Scan(context.Background(), fx.docID, fx.condID)
	if !errors.Is(err, common.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}

	doc, err := fx.docs.Get(context.Background(), fx.docID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.IsScanned {
		t.Error("failed scan must not mark the document scanned")
	}
}

func TestScanFailedRerunKeepsPriorResults(t *testing.T) {
	ex := &fakeExtractor{configured: true, fields: pairs("Total", "500")}
	fx := newFixture(t, ex)
	ctx := context.Background()

	if _, err := fx.svc.Scan(ctx, fx.docID, fx.condID); err != nil {
		t.Fatalf("first scan: %v", err)
	}

	ex.fields = extract.Fields{}
	if _, err := fx.svc.Scan(ctx, fx.docID, fx.condID); !errors.Is(err, common.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}

	rows, err := fx.results.ListByDocument(ctx, fx.docID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 1 || rows[0].Value() != "500" {
		t.Fatalf("rows = %v, want the prior result intact", rows)
	}
	doc, err := fx.docs.Get(ctx, fx.docID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if !doc.IsScanned {
		t.Error("document must stay scanned after a failed re-scan")
	}
}

func TestScanCanceledAfterExtractionCommitsNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The response arrives intact, but the caller has already abandoned
	// the scan by then: nothing may be committed.
	ex := &fakeExtractor{
		configured: true,
		fields:     pairs("Invoice No", "INV1", "Total", "500"),
		cancel:     cancel,
	}
	fx := newFixture(t, ex)

	_, err := fx.svc.Scan(ctx, fx.docID, fx.condID)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}

	rows, err := fx.results.ListByDocument(context.Background(), fx.docID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0 after abandoned scan", len(rows))
	}
	doc, err := fx.docs.Get(context.Background(), fx.docID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if doc.IsScanned || doc.ScannedAt != nil {
		t.Error("abandoned scan must leave the document unscanned")
	}
}

func TestScanNoConditionSelected(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{configured: true, fields: pairs("Total", "1")})

	_, err := fx.svc.Scan(context.Background(), fx.docID, 0)
	if !errors.Is(err, common.ErrNoConditionSelected) {
		t.Fatalf("err = %v, want ErrNoConditionSelected", err)
	}
}

func TestScanMissingCredential(t *testing.T) {
	ex := &fakeExtractor{configured: false}
	fx := newFixture(t, ex)

	_, err := fx.svc.Scan(context.Background(), fx.docID, fx.condID)
	if !errors.Is(err, common.ErrMissingCredential) {
		t.Fatalf("err = %v, want ErrMissingCredential", err)
	}
	if ex.calls != 0 {
		t.Error("extractor must not be called without a credential")
	}
}

func TestScanUnsupportedKind(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{configured: true, fields: pairs("Total", "1")})
	ctx := context.Background()

	// Force the stored kind to a non-image format.
	if err := fx.db.Model(&entity.Document{}).
		Where("id = ?", fx.docID).
		Update("file_kind", "pdf").Error; err != nil {
		t.Fatalf("update kind: %v", err)
	}

	_, err := fx.svc.Scan(ctx, fx.docID, fx.condID)
	if !errors.Is(err, common.ErrUnsupportedKind) {
		t.Fatalf("err = %v, want ErrUnsupportedKind", err)
	}
}

func TestScanFileMissing(t *testing.T) {
	fx := newFixture(t, &fakeExtractor{configured: true, fields: pairs("Total", "1")})
	ctx := context.Background()

	doc, err := fx.docs.Get(ctx, fx.docID)
	if err != nil {
		t.Fatalf("get document: %v", err)
	}
	if err := fx.files.Remove(doc.StoragePath); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	_, err = fx.svc.Scan(ctx, fx.docID, fx.condID)
	if !errors.Is(err, common.ErrFileMissing) {
		t.Fatalf("err = %v, want ErrFileMissing", err)
	}
}

func TestScanRejectsConcurrentSamePair(t *testing.T) {
	ex := &fakeExtractor{
		configured: true,
		fields:     pairs("Total", "1"),
		release:    make(chan struct{}),
		started:    make(chan struct{}),
	}
	fx := newFixture(t, ex)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := fx.svc.Scan(ctx, fx.docID, fx.condID)
		done <- err
	}()
	<-ex.started

	if _, err := fx.svc.Scan(ctx, fx.docID, fx.condID); !errors.Is(err, ErrScanInFlight) {
		t.Fatalf("err = %v, want ErrScanInFlight", err)
	}

	close(ex.release)
	if err := <-done; err != nil {
		t.Fatalf("first scan: %v", err)
	}

	// The pair is free again once the first scan finished.
	if _, err := fx.svc.Scan(ctx, fx.docID, fx.condID); err != nil {
		t.Fatalf("follow-up scan: %v", err)
	}
}

func TestReconcileExactMatch(t *testing.T) {
	fields := pairs("Invoice No", "INV1", "total", "500", "Extra", "x")
	retained, dropped := Reconcile(fields, []string{"Invoice No", "Total"})

	if len(retained) != 1 || retained[0].Name != "Invoice No" {
		t.Errorf("retained = %v, want exactly [Invoice No] (match is case-sensitive)", retained)
	}
	if len(dropped) != 2 {
		t.Errorf("dropped = %v, want [total Extra]", dropped)
	}
}
