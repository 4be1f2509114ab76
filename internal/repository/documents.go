package repository

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/ksugimori/docscan/constants"
	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/entity"
)

// DocumentRepository persists uploaded documents. Physical file removal is
// coordinated through the removeFile callback so a filesystem failure
// aborts the database transaction.
type DocumentRepository interface {
	Create(ctx context.Context, listID uint, filename, storagePath string, kind constants.FileKind) (*entity.Document, error)
	Get(ctx context.Context, id uint) (*entity.Document, error)
	ListByList(ctx context.Context, listID uint) ([]*entity.Document, error)
	// ListScannedByList loads scanned documents with their extraction
	// results across all conditions ever scanned.
	ListScannedByList(ctx context.Context, listID uint) ([]*entity.Document, error)
	// DeleteBatch removes documents and their results. removeFile runs
	// inside the transaction per document; any failure rolls everything
	// back. Returns the number of documents deleted.
	DeleteBatch(ctx context.Context, ids []uint, removeFile func(storagePath string) error) (int, error)
}

type documentRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewDocumentRepository(db *gorm.DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepository{db: db, logger: logger}
}

func (r *documentRepository) Create(ctx context.Context, listID uint, filename, storagePath string, kind constants.FileKind) (*entity.Document, error) {
	doc := &entity.Document{
		Filename:    filename,
		StoragePath: storagePath,
		FileKind:    kind,
		ListID:      listID,
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.DocumentList{}).Where("id = ?", listID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return common.NotFoundErrorf("list %d", listID)
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		r.logger.Error("documents.create.failed", "list_id", listID, "filename", filename, "error", err)
		return nil, err
	}
	r.logger.Info("documents.create.ok", "document_id", doc.ID, "list_id", listID, "filename", filename)
	return doc, nil
}

func (r *documentRepository) Get(ctx context.Context, id uint) (*entity.Document, error) {
	var doc entity.Document
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundErrorf("document %d", id)
		}
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByList(ctx context.Context, listID uint) ([]*entity.Document, error) {
	var docs []*entity.Document
	err := r.db.WithContext(ctx).
		Where("list_id = ?", listID).
		Order("filename ASC").
		Find(&docs).Error
	if err != nil {
		r.logger.Error("documents.list.failed", "list_id", listID, "error", err)
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) ListScannedByList(ctx context.Context, listID uint) ([]*entity.Document, error) {
	var docs []*entity.Document
	err := r.db.WithContext(ctx).
		Preload("Results", func(db *gorm.DB) *gorm.DB {
			return db.Order("condition_id ASC, field_name ASC")
		}).
		Where("list_id = ? AND is_scanned = ?", listID, true).
		Order("filename ASC").
		Find(&docs).Error
	if err != nil {
		r.logger.Error("documents.list_scanned.failed", "list_id", listID, "error", err)
		return nil, err
	}
	return docs, nil
}

func (r *documentRepository) DeleteBatch(ctx context.Context, ids []uint, removeFile func(storagePath string) error) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	deleted := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var docs []*entity.Document
		if err := tx.Where("id IN ?", ids).Find(&docs).Error; err != nil {
			return err
		}
		if len(docs) == 0 {
			return common.NotFoundErrorf("documents %v", ids)
		}
		for _, doc := range docs {
			if removeFile != nil {
				if err := removeFile(doc.StoragePath); err != nil {
					return common.WrapError(err, "remove physical file")
				}
			}
			if err := tx.Where("document_id = ?", doc.ID).Delete(&entity.ExtractionResult{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(doc).Error; err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			r.logger.Error("documents.delete.failed", "ids", ids, "error", err)
		}
		return 0, err
	}
	r.logger.Info("documents.delete.ok", "count", deleted)
	return deleted, nil
}
