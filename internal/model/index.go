package model

import (
	"encoding/json"
	"time"
)

// Index-level statuses derived from remote per-file statuses.
const (
	IndexStatusNotIndexed = "not_indexed"
	IndexStatusInProgress = "in_progress"
	IndexStatusCompleted  = "completed"
	IndexStatusFailed     = "failed"
	IndexStatusUnknown    = "unknown"
)

// Index is a named grouping of files mirrored to a remote provider
// collection. ExternalID is the remote collection id once published; at most
// one Index may hold a given (provider_type, external_id) pair.
type Index struct {
	ID           string  `gorm:"primaryKey;size:36" json:"id"`
	Domain       string  `gorm:"size:128;not null;index" json:"domain"`
	ProviderType string  `gorm:"size:32;not null;index" json:"provider_type"`
	ExternalID   *string `gorm:"size:256;index" json:"external_id"`

	Name        string `gorm:"size:256" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	// JSON columns; see accessors below.
	ExpiresAfter string `gorm:"type:text" json:"-"`
	Metadata     string `gorm:"type:text" json:"-"`
	FileIDs      string `gorm:"type:text" json:"-"`

	IndexingStatus string     `gorm:"size:32;default:not_indexed" json:"indexing_status"`
	IndexedAt      *time.Time `json:"indexed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Index) ExpiresAfterValue() map[string]interface{} {
	return decodeJSONColumn(i.ExpiresAfter)
}

func (i *Index) SetExpiresAfter(v map[string]interface{}) {
	i.ExpiresAfter = encodeJSONColumn(v)
}

func (i *Index) MetadataValue() map[string]interface{} {
	return decodeJSONColumn(i.Metadata)
}

func (i *Index) SetMetadata(v map[string]interface{}) {
	i.Metadata = encodeJSONColumn(v)
}

// FileIDsValue returns the denormalized ordered file-id list refreshed by the
// drift reconciler; nil if never set.
func (i *Index) FileIDsValue() []string {
	if i.FileIDs == "" {
		return nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(i.FileIDs), &ids); err != nil {
		return nil
	}
	return ids
}

func (i *Index) SetFileIDs(ids []string) {
	if ids == nil {
		i.FileIDs = ""
		return
	}
	b, _ := json.Marshal(ids)
	i.FileIDs = string(b)
}
