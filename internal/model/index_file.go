package model

// IndexFile associates a File with an Index. IncludeOrder is 1-based and
// assigned by appending; ExternalID is the remote file id this file currently
// maps to within the index's remote collection, when known.
type IndexFile struct {
	IndexID      string `gorm:"primaryKey;size:36" json:"index_id"`
	FileID       string `gorm:"primaryKey;size:36" json:"file_id"`
	IncludeOrder int    `gorm:"not null" json:"include_order"`
	ExternalID   string `gorm:"size:256" json:"external_id"`

	// Optional chunking override for this file-in-index; wins over the
	// file's own chunking directive.
	Chunking string `gorm:"type:text" json:"-"`
}

func (l *IndexFile) ChunkingOverride() map[string]interface{} {
	return decodeJSONColumn(l.Chunking)
}

func (l *IndexFile) SetChunkingOverride(v map[string]interface{}) {
	l.Chunking = encodeJSONColumn(v)
}
