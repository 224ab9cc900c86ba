package model

import "time"

// File is a locally stored catalog file. The backing bytes live at LocalPath,
// which is deterministic from (domain, id, file_name).
type File struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Domain    string `gorm:"size:128;not null;index" json:"domain"`
	FileName  string `gorm:"size:512;not null" json:"file_name"`
	FileType  string `gorm:"size:128" json:"file_type"`
	LocalPath string `gorm:"size:1024" json:"local_path"`
	SizeBytes int64  `json:"size_bytes"`

	// JSON columns; see accessors below.
	Chunking string `gorm:"type:text" json:"-"`
	Tags     string `gorm:"type:text" json:"-"`

	Notes string `gorm:"type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChunkingStrategy returns the per-file chunking directive; nil if unset.
func (f *File) ChunkingStrategy() map[string]interface{} {
	return decodeJSONColumn(f.Chunking)
}

func (f *File) SetChunkingStrategy(v map[string]interface{}) {
	f.Chunking = encodeJSONColumn(v)
}

func (f *File) TagsValue() map[string]interface{} {
	return decodeJSONColumn(f.Tags)
}

func (f *File) SetTags(v map[string]interface{}) {
	f.Tags = encodeJSONColumn(v)
}
