// Package filestore manages the upload directory tree: one subdirectory
// per document list, holding uniquely-named physical copies of uploaded
// files. Physical names are opaque; original filenames live only in the
// record store.
package filestore

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"github.com/ksugimori/docscan/constants"
	"github.com/ksugimori/docscan/internal/common"
)

// Store is rooted at the upload base directory. All relative paths it
// hands out are forward-slashed and relative to the root's parent, e.g.
// images/3/9b1c….png, matching what the record store persists.
type Store struct {
	root   string // absolute path of the upload base dir
	prefix string // last element of root, used in relative paths
	logger *slog.Logger
}

func New(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, common.WrapError(err, "create upload root")
	}
	return &Store{root: abs, prefix: filepath.Base(abs), logger: logger}, nil
}

// Root returns the absolute upload base directory.
func (s *Store) Root() string { return s.root }

// SaveUpload copies srcPath into the list's directory under a generated
// name and returns the relative storage path plus the normalized kind.
func (s *Store) SaveUpload(listID uint, srcPath, originalName string) (string, constants.FileKind, error) {
	ext := constants.NormalizeExt(filepath.Ext(originalName))
	if !constants.AllowedExt(ext) {
		return "", "", common.ValidationErrorf("unsupported file extension %q", ext)
	}

	dir := s.listDir(listID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", common.WrapError(err, "create list directory")
	}

	unique := uuid.New().String() + "." + ext
	dst := filepath.Join(dir, unique)
	if err := copyFile(srcPath, dst); err != nil {
		return "", "", common.WrapError(err, "copy upload")
	}

	rel := path.Join(s.prefix, strconv.FormatUint(uint64(listID), 10), unique)
	s.logger.Info("filestore.save.ok", "list_id", listID, "filename", originalName, "storage_path", rel)
	return rel, constants.FileKind(ext), nil
}

// Resolve maps a stored relative path to an absolute one, verifying the
// file exists on disk.
func (s *Store) Resolve(storagePath string) (string, error) {
	abs := s.absPath(storagePath)
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", common.ErrFileMissing, storagePath)
		}
		return "", common.WrapError(err, "stat")
	}
	return abs, nil
}

// Remove deletes the physical file. A file already absent is not an
// error; the record store and file store converge either way. The
// containing directory is pruned when it becomes empty.
func (s *Store) Remove(storagePath string) error {
	abs := s.absPath(storagePath)
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		s.logger.Error("filestore.remove.failed", "storage_path", storagePath, "error", err)
		return common.WrapError(err, "remove file")
	}
	s.pruneDir(filepath.Dir(abs))
	return nil
}

// RemoveListDir deletes a list's whole directory tree. An absent
// directory is a no-op.
func (s *Store) RemoveListDir(listID uint) error {
	dir := s.listDir(listID)
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Error("filestore.remove_dir.failed", "list_id", listID, "error", err)
		return common.WrapError(err, "remove list directory")
	}
	s.logger.Info("filestore.remove_dir.ok", "list_id", listID)
	return nil
}

func (s *Store) listDir(listID uint) string {
	return filepath.Join(s.root, strconv.FormatUint(uint64(listID), 10))
}

func (s *Store) absPath(storagePath string) string {
	rel := filepath.FromSlash(storagePath)
	// Stored paths carry the root's base name as their first element.
	return filepath.Join(filepath.Dir(s.root), rel)
}

// pruneDir removes dir if it is empty. Never touches the root itself.
func (s *Store) pruneDir(dir string) {
	if dir == s.root {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) > 0 {
		return
	}
	if err := os.Remove(dir); err != nil {
		s.logger.Warn("filestore.prune.failed", "dir", dir, "error", err)
		return
	}
	s.logger.Info("filestore.prune.ok", "dir", dir)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := in.Close(); cerr != nil {
			slog.Warn("filestore.copy.close_error", "path", src, "error", cerr)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
