package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragsync/internal/model"
)

type IndexFileRepository struct {
	db *gorm.DB
}

func NewIndexFileRepository(db *gorm.DB) *IndexFileRepository {
	return &IndexFileRepository{db: db}
}

func (r *IndexFileRepository) Create(link *model.IndexFile) error {
	if err := r.db.Create(link).Error; err != nil {
		return fmt.Errorf("create index file failed: %w", err)
	}
	return nil
}

func (r *IndexFileRepository) Get(indexID, fileID string) (*model.IndexFile, error) {
	var link model.IndexFile
	if err := r.db.Where("index_id = ? AND file_id = ?", indexID, fileID).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get index file failed: %w", err)
	}
	return &link, nil
}

func (r *IndexFileRepository) ListByIndexID(indexID string) ([]model.IndexFile, error) {
	var list []model.IndexFile
	if err := r.db.Where("index_id = ?", indexID).Order("include_order ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list index files failed: %w", err)
	}
	return list, nil
}

// MaxIncludeOrder returns the highest include_order in the index, or 0 when
// the index has no files, so the next append lands at 1.
func (r *IndexFileRepository) MaxIncludeOrder(indexID string) (int, error) {
	var max *int
	if err := r.db.Model(&model.IndexFile{}).Where("index_id = ?", indexID).
		Select("MAX(include_order)").Scan(&max).Error; err != nil {
		return 0, fmt.Errorf("max include order failed: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

func (r *IndexFileRepository) Save(link *model.IndexFile) error {
	if err := r.db.Save(link).Error; err != nil {
		return fmt.Errorf("save index file failed: %w", err)
	}
	return nil
}

func (r *IndexFileRepository) Delete(indexID, fileID string) (bool, error) {
	res := r.db.Where("index_id = ? AND file_id = ?", indexID, fileID).Delete(&model.IndexFile{})
	if res.Error != nil {
		return false, fmt.Errorf("delete index file failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteNotIn prunes associations whose file id is not in keep, returning the
// number of rows removed.
func (r *IndexFileRepository) DeleteNotIn(indexID string, keep []string) (int64, error) {
	q := r.db.Where("index_id = ?", indexID)
	if len(keep) > 0 {
		q = q.Where("file_id NOT IN ?", keep)
	}
	res := q.Delete(&model.IndexFile{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune index files failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListFileIDsByIndexID returns the associated file ids in include order.
func (r *IndexFileRepository) ListFileIDsByIndexID(indexID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&model.IndexFile{}).Where("index_id = ?", indexID).
		Order("include_order ASC").Pluck("file_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list index file ids failed: %w", err)
	}
	return ids, nil
}
