package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragsync/internal/model"
)

type ProviderUploadRepository struct {
	db *gorm.DB
}

func NewProviderUploadRepository(db *gorm.DB) *ProviderUploadRepository {
	return &ProviderUploadRepository{db: db}
}

func (r *ProviderUploadRepository) Create(upload *model.ProviderUpload) error {
	if err := r.db.Create(upload).Error; err != nil {
		return fmt.Errorf("create provider upload failed: %w", err)
	}
	return nil
}

func (r *ProviderUploadRepository) Save(upload *model.ProviderUpload) error {
	if err := r.db.Save(upload).Error; err != nil {
		return fmt.Errorf("save provider upload failed: %w", err)
	}
	return nil
}

func (r *ProviderUploadRepository) GetByLocalFile(providerType, localFileID string) (*model.ProviderUpload, error) {
	var upload model.ProviderUpload
	if err := r.db.Where("provider_type = ? AND local_file_id = ?", providerType, localFileID).
		First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provider upload failed: %w", err)
	}
	return &upload, nil
}

// ListByExternalFile returns all cache rows claiming the given remote file,
// newest first. More than one row is a cache consistency violation.
func (r *ProviderUploadRepository) ListByExternalFile(providerType, externalFileID string) ([]model.ProviderUpload, error) {
	var list []model.ProviderUpload
	if err := r.db.Where("provider_type = ? AND external_file_id = ?", providerType, externalFileID).
		Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list provider uploads by external file failed: %w", err)
	}
	return list, nil
}

func (r *ProviderUploadRepository) ListByLocalFileIDs(providerType string, localFileIDs []string) ([]model.ProviderUpload, error) {
	if len(localFileIDs) == 0 {
		return nil, nil
	}
	var list []model.ProviderUpload
	if err := r.db.Where("provider_type = ? AND local_file_id IN ?", providerType, localFileIDs).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list provider uploads failed: %w", err)
	}
	return list, nil
}

func (r *ProviderUploadRepository) List(providerType string, offset, limit int) ([]model.ProviderUpload, error) {
	var list []model.ProviderUpload
	q := r.db.Where("provider_type = ?", providerType).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list provider uploads failed: %w", err)
	}
	return list, nil
}

func (r *ProviderUploadRepository) GetByID(providerType, id string) (*model.ProviderUpload, error) {
	var upload model.ProviderUpload
	if err := r.db.Where("provider_type = ? AND id = ?", providerType, id).First(&upload).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provider upload failed: %w", err)
	}
	return &upload, nil
}

func (r *ProviderUploadRepository) Delete(providerType, id string) (bool, error) {
	res := r.db.Where("provider_type = ? AND id = ?", providerType, id).Delete(&model.ProviderUpload{})
	if res.Error != nil {
		return false, fmt.Errorf("delete provider upload failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteByLocalFileIDs purges cache rows for the given local files, returning
// the number removed. Used when a remote collection disappears.
func (r *ProviderUploadRepository) DeleteByLocalFileIDs(providerType string, localFileIDs []string) (int64, error) {
	if len(localFileIDs) == 0 {
		return 0, nil
	}
	res := r.db.Where("provider_type = ? AND local_file_id IN ?", providerType, localFileIDs).
		Delete(&model.ProviderUpload{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete provider uploads failed: %w", res.Error)
	}
	return res.RowsAffected, nil
}
