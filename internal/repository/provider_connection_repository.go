package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragsync/internal/model"
)

type ProviderConnectionRepository struct {
	db *gorm.DB
}

func NewProviderConnectionRepository(db *gorm.DB) *ProviderConnectionRepository {
	return &ProviderConnectionRepository{db: db}
}

func (r *ProviderConnectionRepository) List() ([]model.ProviderConnection, error) {
	var list []model.ProviderConnection
	if err := r.db.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list provider connections failed: %w", err)
	}
	return list, nil
}

func (r *ProviderConnectionRepository) Get(providerType string) (*model.ProviderConnection, error) {
	var conn model.ProviderConnection
	if err := r.db.Where("provider_type = ?", providerType).First(&conn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get provider connection failed: %w", err)
	}
	return &conn, nil
}

func (r *ProviderConnectionRepository) Save(conn *model.ProviderConnection) error {
	if err := r.db.Save(conn).Error; err != nil {
		return fmt.Errorf("save provider connection failed: %w", err)
	}
	return nil
}

func (r *ProviderConnectionRepository) Delete(providerType string) (bool, error) {
	res := r.db.Where("provider_type = ?", providerType).Delete(&model.ProviderConnection{})
	if res.Error != nil {
		return false, fmt.Errorf("delete provider connection failed: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
