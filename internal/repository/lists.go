package repository

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/entity"
)

// DocumentListRepository persists document lists. The list's storage
// directory lives in the file store; deletions coordinate both through
// Delete's removeDir callback so the stores cannot diverge silently.
type DocumentListRepository interface {
	Create(ctx context.Context, name string) (*entity.DocumentList, error)
	Rename(ctx context.Context, id uint, name string) (*entity.DocumentList, error)
	// Delete removes the list, its documents and their extraction results.
	// removeDir is invoked inside the transaction, before the rows are
	// deleted; if it fails nothing is committed.
	Delete(ctx context.Context, id uint, removeDir func(listID uint) error) error
	Get(ctx context.Context, id uint) (*entity.DocumentList, error)
	List(ctx context.Context) ([]*entity.DocumentList, error)
}

type documentListRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDocumentListRepository(db *gorm.DB, logger *slog.Logger) DocumentListRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentListRepository{db: db, logger: logger}
}

func (r *documentListRepository) Create(ctx context.Context, name string) (*entity.DocumentList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ValidationErrorf("list name is required")
	}
	list := &entity.DocumentList{Name: name}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.DocumentList{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.ValidationErrorf("list name %q is already in use", name)
		}
		return tx.Create(list).Error
	})
	if err != nil {
		r.logger.Error("lists.create.failed", "name", name, "error", err)
		return nil, err
	}
	r.logger.Info("lists.create.ok", "list_id", list.ID, "name", name)
	return list, nil
}

func (r *documentListRepository) Rename(ctx context.Context, id uint, name string) (*entity.DocumentList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ValidationErrorf("list name is required")
	}
	var list entity.DocumentList
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&list, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundErrorf("list %d", id)
			}
			return err
		}
		var conflicts int64
		if err := tx.Model(&entity.DocumentList{}).
			Where("name = ? AND id <> ?", name, id).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return common.ValidationErrorf("list name %q is already in use", name)
		}
		return tx.Model(&list).Update("name", name).Error
	})
	if err != nil {
		r.logger.Error("lists.rename.failed", "list_id", id, "error", err)
		return nil, err
	}
	r.logger.Info("lists.rename.ok", "list_id", id, "name", name)
	return &list, nil
}

func (r *documentListRepository) Delete(ctx context.Context, id uint, removeDir func(listID uint) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var list entity.DocumentList
		if err := tx.First(&list, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundErrorf("list %d", id)
			}
			return err
		}
		if removeDir != nil {
			if err := removeDir(id); err != nil {
				return common.WrapError(err, "remove list directory")
			}
		}
		var docIDs []uint
		if err := tx.Model(&entity.Document{}).Where("list_id = ?", id).Pluck("id", &docIDs).Error; err != nil {
			return err
		}
		if len(docIDs) > 0 {
			if err := tx.Where("document_id IN ?", docIDs).Delete(&entity.ExtractionResult{}).Error; err != nil {
				return err
			}
			if err := tx.Where("list_id = ?", id).Delete(&entity.Document{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&list).Error
	})
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			r.logger.Error("lists.delete.failed", "list_id", id, "error", err)
		}
		return err
	}
	r.logger.Info("lists.delete.ok", "list_id", id)
	return nil
}

func (r *documentListRepository) Get(ctx context.Context, id uint) (*entity.DocumentList, error) {
	var list entity.DocumentList
	if err := r.db.WithContext(ctx).First(&list, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundErrorf("list %d", id)
		}
		return nil, err
	}
	return &list, nil
}

func (r *documentListRepository) List(ctx context.Context) ([]*entity.DocumentList, error) {
	var lists []*entity.DocumentList
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&lists).Error; err != nil {
		r.logger.Error("lists.list.failed", "error", err)
		return nil, err
	}
	return lists, nil
}
