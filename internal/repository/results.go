package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/ksugimori/docscan/internal/common"
	"github.com/ksugimori/docscan/internal/entity"
)

// FieldValue is one reconciled (field name, extracted value) pair in the
// order it was retained from the extraction response.
type FieldValue struct {
	Name  string
	Value string
}

// ExtractionResultRepository persists scan results. Replacement for a
// (document, condition) pair is a single atomic operation rather than
// delete-then-insert glued together at the call site.
type ExtractionResultRepository interface {
	// ReplaceScan deletes all prior rows for the pair, inserts one row per
	// pair, and marks the document scanned, all in one transaction.
	ReplaceScan(ctx context.Context, documentID, conditionID uint, pairs []FieldValue, at time.Time) error
	// ListByDocument returns every result for the document across all
	// conditions, ordered by condition then field name.
	ListByDocument(ctx context.Context, documentID uint) ([]*entity.ExtractionResult, error)
}

type extractionResultRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewExtractionResultRepository(db *gorm.DB, logger *slog.Logger) ExtractionResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionResultRepository{db: db, logger: logger}
}

func (r *extractionResultRepository) ReplaceScan(ctx context.Context, documentID, conditionID uint, pairs []FieldValue, at time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doc entity.Document
		if err := tx.First(&doc, documentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundErrorf("document %d", documentID)
			}
			return err
		}
		if err := tx.
			Where("document_id = ? AND condition_id = ?", documentID, conditionID).
			Delete(&entity.ExtractionResult{}).Error; err != nil {
			return err
		}
		rows := make([]entity.ExtractionResult, 0, len(pairs))
		for _, p := range pairs {
			v := p.Value
			rows = append(rows, entity.ExtractionResult{
				DocumentID:     documentID,
				ConditionID:    conditionID,
				FieldName:      p.Name,
				ExtractedValue: &v,
			})
		}
		if len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return tx.Model(&doc).Updates(map[string]any{
			"is_scanned": true,
			"scanned_at": at,
		}).Error
	})
	if err != nil {
		r.logger.Error("results.replace.failed",
			"document_id", documentID,
			"condition_id", conditionID,
			"error", err,
		)
		return err
	}
	r.logger.Info("results.replace.ok",
		"document_id", documentID,
		"condition_id", conditionID,
		"rows", len(pairs),
	)
	return nil
}

func (r *extractionResultRepository) ListByDocument(ctx context.Context, documentID uint) ([]*entity.ExtractionResult, error) {
	var rows []*entity.ExtractionResult
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("condition_id ASC, field_name ASC").
		Find(&rows).Error
	if err != nil {
		r.logger.Error("results.list.failed", "document_id", documentID, "error", err)
		return nil, err
	}
	return rows, nil
}
