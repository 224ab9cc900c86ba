package repository

import (
	"fmt"

	"gorm.io/gorm"

	"ragsync/internal/model"
)

type SyncReportRepository struct {
	db *gorm.DB
}

func NewSyncReportRepository(db *gorm.DB) *SyncReportRepository {
	return &SyncReportRepository{db: db}
}

func (r *SyncReportRepository) Create(report *model.SyncReport) error {
	if err := r.db.Create(report).Error; err != nil {
		return fmt.Errorf("create sync report failed: %w", err)
	}
	return nil
}

func (r *SyncReportRepository) ListByDomain(domain string, offset, limit int) ([]model.SyncReport, error) {
	var list []model.SyncReport
	q := r.db.Where("domain = ?", domain).Order("created_at DESC").Offset(offset)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list sync reports failed: %w", err)
	}
	return list, nil
}
