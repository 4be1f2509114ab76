package filestore

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ksugimori/docscan/constants"
	"github.com/ksugimori/docscan/internal/common"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(filepath.Join(t.TempDir(), "images"), log)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func TestSaveUploadGeneratesUniqueNames(t *testing.T) {
	s := newStore(t)
	src := writeSource(t, "scan.PNG")

	first, kind, err := s.SaveUpload(3, src, "scan.PNG")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if kind != constants.KindPNG {
		t.Errorf("kind = %q, want png (extension is normalized)", kind)
	}
	if !strings.HasPrefix(first, "images/3/") || !strings.HasSuffix(first, ".png") {
		t.Errorf("storage path = %q, want images/3/<uuid>.png", first)
	}

	second, _, err := s.SaveUpload(3, src, "scan.PNG")
	if err != nil {
		t.Fatalf("save again: %v", err)
	}
	if first == second {
		t.Error("same original name must yield distinct storage paths")
	}

	for _, rel := range []string{first, second} {
		if _, err := s.Resolve(rel); err != nil {
			t.Errorf("resolve %q: %v", rel, err)
		}
	}
}

func TestSaveUploadRejectsUnknownExtension(t *testing.T) {
	s := newStore(t)
	src := writeSource(t, "notes.txt")

	_, _, err := s.SaveUpload(1, src, "notes.txt")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestResolveMissingFile(t *testing.T) {
	s := newStore(t)

	_, err := s.Resolve("images/9/absent.png")
	if !errors.Is(err, common.ErrFileMissing) {
		t.Fatalf("err = %v, want ErrFileMissing", err)
	}
}

func TestRemovePrunesEmptyListDir(t *testing.T) {
	s := newStore(t)
	src := writeSource(t, "scan.png")

	rel, _, err := s.SaveUpload(5, src, "scan.png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Remove(rel); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.Root(), "5")); !os.IsNotExist(err) {
		t.Error("empty list directory must be pruned")
	}
	if _, err := os.Stat(s.Root()); err != nil {
		t.Error("upload root must never be pruned")
	}

	// Removing an already-absent file is not an error.
	if err := s.Remove(rel); err != nil {
		t.Errorf("second remove: %v", err)
	}
}

func TestRemoveKeepsNonEmptyDir(t *testing.T) {
	s := newStore(t)
	src := writeSource(t, "scan.png")

	a, _, err := s.SaveUpload(7, src, "scan.png")
	if err != nil {
		t.Fatalf("save a: %v", err)
	}
	b, _, err := s.SaveUpload(7, src, "scan.png")
	if err != nil {
		t.Fatalf("save b: %v", err)
	}

	if err := s.Remove(a); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Resolve(b); err != nil {
		t.Errorf("sibling file must survive: %v", err)
	}
}

func TestRemoveListDir(t *testing.T) {
	s := newStore(t)
	src := writeSource(t, "scan.jpg")

	rel, _, err := s.SaveUpload(2, src, "scan.jpg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.RemoveListDir(2); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	if _, err := s.Resolve(rel); !errors.Is(err, common.ErrFileMissing) {
		t.Fatalf("err = %v, want ErrFileMissing after dir removal", err)
	}
	// Absent directory is a no-op.
	if err := s.RemoveListDir(2); err != nil {
		t.Errorf("second remove dir: %v", err)
	}
}
