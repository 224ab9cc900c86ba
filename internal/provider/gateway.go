// Package provider defines the abstract capability set every remote
// vector-store provider exposes, plus helpers for the loosely-typed records
// those providers return.
package provider

import "context"

// CreateVectorStoreInput carries the optional fields of collection creation.
type CreateVectorStoreInput struct {
	Name         string
	Description  string
	ExpiresAfter map[string]interface{}
	FileIDs      []string
	Metadata     map[string]string
}

// ListVectorStoreFilesInput mirrors the provider list endpoint's paging and
// filter knobs.
type ListVectorStoreFilesInput struct {
	Limit        int
	After        string
	Before       string
	Order        string
	StatusFilter string
}

// SearchInput is the passthrough search request for a collection.
type SearchInput struct {
	Query          string
	Filters        map[string]interface{}
	MaxNumResults  int
	RankingOptions map[string]interface{}
	RewriteQuery   *bool
}

// Gateway is the capability set consumed by the reconciliation engine. Every
// provider variant implements all of it; records come back as loosely-typed
// maps whose schema is only partially normalized.
type Gateway interface {
	Healthcheck(ctx context.Context) error

	CreateVectorStore(ctx context.Context, in CreateVectorStoreInput) (Record, error)
	RetrieveVectorStore(ctx context.Context, vectorStoreID string) (Record, error)
	DeleteVectorStore(ctx context.Context, vectorStoreID string) error
	ListVectorStores(ctx context.Context, limit int) ([]Record, error)
	SearchVectorStore(ctx context.Context, vectorStoreID string, in SearchInput) ([]Record, error)

	AttachFileToVectorStore(ctx context.Context, vectorStoreID, fileID string, attributes map[string]interface{}, chunkingStrategy map[string]interface{}) (Record, error)
	DetachFileFromVectorStore(ctx context.Context, vectorStoreID, fileID string) error
	ListVectorStoreFiles(ctx context.Context, vectorStoreID string, in ListVectorStoreFilesInput) ([]Record, error)
	RetrieveVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (Record, error)
	RetrieveVectorStoreFileContent(ctx context.Context, vectorStoreID, fileID string) ([]Record, error)

	CreateFile(ctx context.Context, localPath string, meta map[string]string) (Record, error)
	RetrieveFile(ctx context.Context, fileID string) (Record, error)
	RetrieveFileContent(ctx context.Context, fileID string) ([]byte, error)
	ListFiles(ctx context.Context, limit int) ([]Record, error)
}
