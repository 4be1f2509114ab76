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

// ConditionRepository persists extraction conditions and their data items.
type ConditionRepository interface {
	Create(ctx context.Context, name string, itemNames []string) (*entity.Condition, error)
	// Update renames the condition and replaces its data items wholesale.
	Update(ctx context.Context, id uint, name string, itemNames []string) (*entity.Condition, error)
	// Delete removes the condition, its items, and every extraction result
	// that references it. Deleting an absent condition returns ErrNotFound.
	Delete(ctx context.Context, id uint) error
	// Get loads a condition with its items in declared order.
	Get(ctx context.Context, id uint) (*entity.Condition, error)
	List(ctx context.Context) ([]*entity.Condition, error)
	// NamesByIDs resolves condition names in one query. IDs with no
	// surviving condition are absent from the result map.
	NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error)
}

type conditionRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewConditionRepository(db *gorm.DB, logger *slog.Logger) ConditionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &conditionRepository{db: db, logger: logger}
}

func (r *conditionRepository) Create(ctx context.Context, name string, itemNames []string) (*entity.Condition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ValidationErrorf("condition name is required")
	}
	items := buildItems(itemNames)
	if len(items) == 0 {
		return nil, common.ValidationErrorf("at least one data item is required")
	}

	cond := &entity.Condition{Name: name, DataItems: items}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entity.Condition{}).Where("name = ?", name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return common.ValidationErrorf("condition name %q is already in use", name)
		}
		return tx.Create(cond).Error
	})
	if err != nil {
		r.logger.Error("conditions.create.failed", "name", name, "error", err)
		return nil, err
	}
	r.logger.Info("conditions.create.ok", "condition_id", cond.ID, "name", name, "items", len(items))
	return cond, nil
}

func (r *conditionRepository) Update(ctx context.Context, id uint, name string, itemNames []string) (*entity.Condition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ValidationErrorf("condition name is required")
	}
	items := buildItems(itemNames)
	if len(items) == 0 {
		return nil, common.ValidationErrorf("at least one data item is required")
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cond entity.Condition
		if err := tx.First(&cond, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundErrorf("condition %d", id)
			}
			return err
		}
		var conflicts int64
		if err := tx.Model(&entity.Condition{}).
			Where("name = ? AND id <> ?", name, id).
			Count(&conflicts).Error; err != nil {
			return err
		}
		if conflicts > 0 {
			return common.ValidationErrorf("condition name %q is already in use", name)
		}
		if err := tx.Model(&cond).Update("name", name).Error; err != nil {
			return err
		}
		// Replace items wholesale; result rows keep their own snapshot of
		// the field names, so history is unaffected.
		if err := tx.Where("condition_id = ?", id).Delete(&entity.DataItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ConditionID = id
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		r.logger.Error("conditions.update.failed", "condition_id", id, "error", err)
		return nil, err
	}
	r.logger.Info("conditions.update.ok", "condition_id", id, "name", name, "items", len(items))
	return r.Get(ctx, id)
}

func (r *conditionRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cond entity.Condition
		if err := tx.First(&cond, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return common.NotFoundErrorf("condition %d", id)
			}
			return err
		}
		// Hard cascade: removing a condition erases the scan history that
		// referenced it. See DESIGN.md for the policy decision.
		if err := tx.Where("condition_id = ?", id).Delete(&entity.ExtractionResult{}).Error; err != nil {
			return err
		}
		if err := tx.Where("condition_id = ?", id).Delete(&entity.DataItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cond).Error
	})
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			r.logger.Error("conditions.delete.failed", "condition_id", id, "error", err)
		}
		return err
	}
	r.logger.Info("conditions.delete.ok", "condition_id", id)
	return nil
}

func (r *conditionRepository) Get(ctx context.Context, id uint) (*entity.Condition, error) {
	var cond entity.Condition
	err := r.db.WithContext(ctx).
		Preload("DataItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		First(&cond, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFoundErrorf("condition %d", id)
		}
		return nil, err
	}
	return &cond, nil
}

func (r *conditionRepository) List(ctx context.Context) ([]*entity.Condition, error) {
	var conds []*entity.Condition
	err := r.db.WithContext(ctx).
		Preload("DataItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, id ASC")
		}).
		Order("name ASC").
		Find(&conds).Error
	if err != nil {
		r.logger.Error("conditions.list.failed", "error", err)
		return nil, err
	}
	return conds, nil
}

func (r *conditionRepository) NamesByIDs(ctx context.Context, ids []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var conds []entity.Condition
	err := r.db.WithContext(ctx).
		Select("id", "name").
		Where("id IN ?", ids).
		Find(&conds).Error
	if err != nil {
		r.logger.Error("conditions.names.failed", "error", err)
		return nil, err
	}
	for _, c := range conds {
		names[c.ID] = c.Name
	}
	return names, nil
}

// buildItems trims names, drops empties, and assigns declaration order.
func buildItems(names []string) []entity.DataItem {
	items := make([]entity.DataItem, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		items = append(items, entity.DataItem{Name: n, SortOrder: len(items)})
	}
	return items
}
