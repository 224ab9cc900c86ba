package model

import "time"

// Upload cache statuses.
const (
	UploadStatusPending  = "pending"
	UploadStatusUploaded = "uploaded"
	UploadStatusFailed   = "failed"
)

// ProviderUpload caches the result of uploading a local file's bytes to a
// provider. A row with status=uploaded is a valid cache hit only while its
// ContentSHA256 still equals the local file's current digest.
type ProviderUpload struct {
	ID           string `gorm:"primaryKey;size:36" json:"id"`
	ProviderType string `gorm:"size:64;not null;index;uniqueIndex:uq_provider_local_file;uniqueIndex:uq_provider_external_file" json:"provider_type"`
	LocalFileID  string `gorm:"size:36;not null;index;uniqueIndex:uq_provider_local_file" json:"local_file_id"`

	// NULL until an upload succeeds, so pending and failed rows never collide
	// in the unique index.
	ExternalFileID     *string    `gorm:"size:255;uniqueIndex:uq_provider_external_file" json:"external_file_id"`
	ExternalUploadedAt *time.Time `json:"external_uploaded_at"`

	ContentSHA256 string `gorm:"size:64;not null" json:"content_sha256"`
	Status        string `gorm:"size:32;not null" json:"status"`
	LastError     string `gorm:"type:text" json:"last_error"`

	// Raw provider response for the upload, kept for audit.
	RawPayload string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExternalFileIDValue returns the remote file id, or "" before a successful
// upload.
func (u *ProviderUpload) ExternalFileIDValue() string {
	if u.ExternalFileID == nil {
		return ""
	}
	return *u.ExternalFileID
}

func (u *ProviderUpload) RawPayloadValue() map[string]interface{} {
	return decodeJSONColumn(u.RawPayload)
}

func (u *ProviderUpload) SetRawPayload(v map[string]interface{}) {
	u.RawPayload = encodeJSONColumn(v)
}
