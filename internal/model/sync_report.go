package model

import "time"

// Sync report kinds.
const (
	ReportKindPublish = "publish"
	ReportKindStatus  = "status"
	ReportKindDrift   = "drift"
)

// SyncReport is an audit row for one reconciliation run, persisted
// asynchronously by the report worker.
type SyncReport struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	Domain       string `gorm:"size:128;index" json:"domain"`
	ProviderType string `gorm:"size:64;index" json:"provider_type"`
	Kind         string `gorm:"size:16;not null" json:"kind"`
	IndexID      string `gorm:"size:36;index" json:"index_id"`

	Report     string `gorm:"type:text" json:"-"`
	ErrorCount int    `json:"error_count"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *SyncReport) ReportValue() map[string]interface{} {
	return decodeJSONColumn(r.Report)
}
