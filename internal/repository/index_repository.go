package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ragsync/internal/model"
)

type IndexRepository struct {
	db *gorm.DB
}

func NewIndexRepository(db *gorm.DB) *IndexRepository {
	return &IndexRepository{db: db}
}

func (r *IndexRepository) Create(index *model.Index) error {
	if err := r.db.Create(index).Error; err != nil {
		return fmt.Errorf("create index failed: %w", err)
	}
	return nil
}

func (r *IndexRepository) ListByDomain(domain string, offset, limit int) ([]model.Index, error) {
	var list []model.Index
	q := r.db.Where("domain = ?", domain).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list indexes failed: %w", err)
	}
	return list, nil
}

func (r *IndexRepository) GetByIDAndDomain(id, domain string) (*model.Index, error) {
	var index model.Index
	if err := r.db.Where("id = ? AND domain = ?", id, domain).First(&index).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get index failed: %w", err)
	}
	return &index, nil
}

// ListByExternalID returns every index bound to the given remote collection,
// newest first. More than one row is a consistency violation the caller must
// report, never merge.
func (r *IndexRepository) ListByExternalID(providerType, externalID string) ([]model.Index, error) {
	var list []model.Index
	if err := r.db.Where("provider_type = ? AND external_id = ?", providerType, externalID).
		Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list indexes by external id failed: %w", err)
	}
	return list, nil
}

// ListBoundByProviderType returns all indexes of a provider that currently
// reference a remote collection, across domains.
func (r *IndexRepository) ListBoundByProviderType(providerType string) ([]model.Index, error) {
	var list []model.Index
	if err := r.db.Where("provider_type = ? AND external_id IS NOT NULL", providerType).
		Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bound indexes failed: %w", err)
	}
	return list, nil
}

// ListBoundByDomain returns a domain's indexes with a remote collection,
// optionally filtered by provider type, newest first.
func (r *IndexRepository) ListBoundByDomain(domain, providerType string) ([]model.Index, error) {
	q := r.db.Where("domain = ? AND external_id IS NOT NULL", domain)
	if providerType != "" {
		q = q.Where("provider_type = ?", providerType)
	}
	var list []model.Index
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list bound indexes by domain failed: %w", err)
	}
	return list, nil
}

func (r *IndexRepository) Save(index *model.Index) error {
	if err := r.db.Save(index).Error; err != nil {
		return fmt.Errorf("save index failed: %w", err)
	}
	return nil
}

// Delete removes the index row plus its index-file associations.
func (r *IndexRepository) Delete(id, domain string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("index_id = ?", id).Delete(&model.IndexFile{}).Error; err != nil {
			return fmt.Errorf("delete index files failed: %w", err)
		}
		if err := tx.Where("id = ? AND domain = ?", id, domain).Delete(&model.Index{}).Error; err != nil {
			return fmt.Errorf("delete index failed: %w", err)
		}
		return nil
	})
}
