package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragsync/internal/model"
)

type FileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) *FileRepository {
	return &FileRepository{db: db}
}

func (r *FileRepository) Create(file *model.File) error {
	if err := r.db.Create(file).Error; err != nil {
		return fmt.Errorf("create file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) ListByDomain(domain string, offset, limit int) ([]model.File, error) {
	var list []model.File
	q := r.db.Where("domain = ?", domain).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list files failed: %w", err)
	}
	return list, nil
}

func (r *FileRepository) GetByIDAndDomain(id, domain string) (*model.File, error) {
	var file model.File
	if err := r.db.Where("id = ? AND domain = ?", id, domain).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get file failed: %w", err)
	}
	return &file, nil
}

// GetByID looks a file up across all domains; the drift reconciler needs this
// to detect cross-domain collisions.
func (r *FileRepository) GetByID(id string) (*model.File, error) {
	var file model.File
	if err := r.db.Where("id = ?", id).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get file failed: %w", err)
	}
	return &file, nil
}

func (r *FileRepository) ListByIDs(ids []string) ([]model.File, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.File
	if err := r.db.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list files by ids failed: %w", err)
	}
	return list, nil
}

func (r *FileRepository) Save(file *model.File) error {
	if err := r.db.Save(file).Error; err != nil {
		return fmt.Errorf("save file failed: %w", err)
	}
	return nil
}

func (r *FileRepository) Delete(id, domain string) error {
	if err := r.db.Where("id = ? AND domain = ?", id, domain).Delete(&model.File{}).Error; err != nil {
		return fmt.Errorf("delete file failed: %w", err)
	}
	return nil
}
