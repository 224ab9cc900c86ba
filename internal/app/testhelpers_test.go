package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"ragsync/internal/model"
	"ragsync/internal/provider"
)

func strPtr(s string) *string { return &s }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.File{},
		&model.Index{},
		&model.IndexFile{},
		&model.ProviderUpload{},
		&model.ProviderConnection{},
		&model.SyncReport{},
	))
	return db
}

func seedFile(t *testing.T, db *gorm.DB, domain, name string, content []byte) *model.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	file := &model.File{
		ID:        uuid.NewString(),
		Domain:    domain,
		FileName:  name,
		FileType:  "text/plain",
		LocalPath: path,
		SizeBytes: int64(len(content)),
	}
	require.NoError(t, db.Create(file).Error)
	return file
}

func seedIndex(t *testing.T, db *gorm.DB, domain, providerType string, externalID *string) *model.Index {
	t.Helper()
	index := &model.Index{
		ID:             uuid.NewString(),
		Domain:         domain,
		ProviderType:   providerType,
		ExternalID:     externalID,
		Name:           "test index",
		IndexingStatus: model.IndexStatusNotIndexed,
	}
	require.NoError(t, db.Create(index).Error)
	return index
}

func linkFile(t *testing.T, db *gorm.DB, indexID, fileID string, order int) *model.IndexFile {
	t.Helper()
	link := &model.IndexFile{IndexID: indexID, FileID: fileID, IncludeOrder: order}
	require.NoError(t, db.Create(link).Error)
	return link
}

// fakeGateway implements provider.Gateway with per-method hooks. Unhooked
// methods return zero values; mutating calls are recorded for assertions.
type fakeGateway struct {
	healthcheckFn                    func() error
	createVectorStoreFn              func(in provider.CreateVectorStoreInput) (provider.Record, error)
	retrieveVectorStoreFn            func(vectorStoreID string) (provider.Record, error)
	deleteVectorStoreFn              func(vectorStoreID string) error
	listVectorStoresFn               func(limit int) ([]provider.Record, error)
	searchVectorStoreFn              func(vectorStoreID string, in provider.SearchInput) ([]provider.Record, error)
	attachFn                         func(vectorStoreID, fileID string, attributes, chunkingStrategy map[string]interface{}) (provider.Record, error)
	detachFn                         func(vectorStoreID, fileID string) error
	listVectorStoreFilesFn           func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error)
	retrieveVectorStoreFileFn        func(vectorStoreID, fileID string) (provider.Record, error)
	retrieveVectorStoreFileContentFn func(vectorStoreID, fileID string) ([]provider.Record, error)
	createFileFn                     func(localPath string, meta map[string]string) (provider.Record, error)
	retrieveFileFn                   func(fileID string) (provider.Record, error)
	retrieveFileContentFn            func(fileID string) ([]byte, error)
	listFilesFn                      func(limit int) ([]provider.Record, error)

	createFileCalls        int
	createVectorStoreCalls int
	attachedFileIDs        []string
	detachedFileIDs        []string
}

func (g *fakeGateway) Healthcheck(ctx context.Context) error {
	if g.healthcheckFn != nil {
		return g.healthcheckFn()
	}
	return nil
}

func (g *fakeGateway) CreateVectorStore(ctx context.Context, in provider.CreateVectorStoreInput) (provider.Record, error) {
	g.createVectorStoreCalls++
	if g.createVectorStoreFn != nil {
		return g.createVectorStoreFn(in)
	}
	return provider.Record{"id": "vs-" + uuid.NewString()[:8]}, nil
}

func (g *fakeGateway) RetrieveVectorStore(ctx context.Context, vectorStoreID string) (provider.Record, error) {
	if g.retrieveVectorStoreFn != nil {
		return g.retrieveVectorStoreFn(vectorStoreID)
	}
	return provider.Record{"id": vectorStoreID}, nil
}

func (g *fakeGateway) DeleteVectorStore(ctx context.Context, vectorStoreID string) error {
	if g.deleteVectorStoreFn != nil {
		return g.deleteVectorStoreFn(vectorStoreID)
	}
	return nil
}

func (g *fakeGateway) ListVectorStores(ctx context.Context, limit int) ([]provider.Record, error) {
	if g.listVectorStoresFn != nil {
		return g.listVectorStoresFn(limit)
	}
	return nil, nil
}

func (g *fakeGateway) SearchVectorStore(ctx context.Context, vectorStoreID string, in provider.SearchInput) ([]provider.Record, error) {
	if g.searchVectorStoreFn != nil {
		return g.searchVectorStoreFn(vectorStoreID, in)
	}
	return nil, nil
}

func (g *fakeGateway) AttachFileToVectorStore(ctx context.Context, vectorStoreID, fileID string, attributes, chunkingStrategy map[string]interface{}) (provider.Record, error) {
	if g.attachFn != nil {
		rec, err := g.attachFn(vectorStoreID, fileID, attributes, chunkingStrategy)
		if err != nil {
			return nil, err
		}
		g.attachedFileIDs = append(g.attachedFileIDs, fileID)
		return rec, nil
	}
	g.attachedFileIDs = append(g.attachedFileIDs, fileID)
	return provider.Record{"id": "vsf-" + fileID, "file_id": fileID}, nil
}

func (g *fakeGateway) DetachFileFromVectorStore(ctx context.Context, vectorStoreID, fileID string) error {
	if g.detachFn != nil {
		if err := g.detachFn(vectorStoreID, fileID); err != nil {
			return err
		}
	}
	g.detachedFileIDs = append(g.detachedFileIDs, fileID)
	return nil
}

func (g *fakeGateway) ListVectorStoreFiles(ctx context.Context, vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
	if g.listVectorStoreFilesFn != nil {
		return g.listVectorStoreFilesFn(vectorStoreID, in)
	}
	return nil, nil
}

func (g *fakeGateway) RetrieveVectorStoreFile(ctx context.Context, vectorStoreID, fileID string) (provider.Record, error) {
	if g.retrieveVectorStoreFileFn != nil {
		return g.retrieveVectorStoreFileFn(vectorStoreID, fileID)
	}
	return nil, nil
}

func (g *fakeGateway) RetrieveVectorStoreFileContent(ctx context.Context, vectorStoreID, fileID string) ([]provider.Record, error) {
	if g.retrieveVectorStoreFileContentFn != nil {
		return g.retrieveVectorStoreFileContentFn(vectorStoreID, fileID)
	}
	return nil, nil
}

func (g *fakeGateway) CreateFile(ctx context.Context, localPath string, meta map[string]string) (provider.Record, error) {
	g.createFileCalls++
	if g.createFileFn != nil {
		return g.createFileFn(localPath, meta)
	}
	return provider.Record{"id": "file-" + uuid.NewString()[:8]}, nil
}

func (g *fakeGateway) RetrieveFile(ctx context.Context, fileID string) (provider.Record, error) {
	if g.retrieveFileFn != nil {
		return g.retrieveFileFn(fileID)
	}
	return nil, nil
}

func (g *fakeGateway) RetrieveFileContent(ctx context.Context, fileID string) ([]byte, error) {
	if g.retrieveFileContentFn != nil {
		return g.retrieveFileContentFn(fileID)
	}
	return nil, nil
}

func (g *fakeGateway) ListFiles(ctx context.Context, limit int) ([]provider.Record, error) {
	if g.listFilesFn != nil {
		return g.listFilesFn(limit)
	}
	return nil, nil
}

type fakeResolver struct {
	gateway provider.Gateway
	err     error
}

func (f fakeResolver) Gateway(providerType string) (provider.Gateway, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.gateway, nil
}
