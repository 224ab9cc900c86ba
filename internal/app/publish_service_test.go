package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragsync/internal/model"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

func newPublishFixture(t *testing.T, gw *fakeGateway) (*PublishService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	fileRepo := repository.NewFileRepository(db)
	uploadRepo := repository.NewProviderUploadRepository(db)
	uploads := NewUploadsService(fileRepo, uploadRepo, fakeResolver{gateway: gw})
	svc := NewPublishService(
		repository.NewIndexRepository(db),
		fileRepo,
		repository.NewIndexFileRepository(db),
		uploads,
		fakeResolver{gateway: gw},
		nil,
		zap.NewNop(),
		100,
	)
	return svc, db
}

// namedUploads makes remote file ids deterministic: file-<local file name>.
func namedUploads(gw *fakeGateway) {
	gw.createFileFn = func(localPath string, meta map[string]string) (provider.Record, error) {
		return provider.Record{"id": "file-" + filepath.Base(localPath)}, nil
	}
}

func TestPublishCreatesCollectionAndAttaches(t *testing.T) {
	gw := &fakeGateway{
		createVectorStoreFn: func(in provider.CreateVectorStoreInput) (provider.Record, error) {
			return provider.Record{"id": "vs-1"}, nil
		},
	}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", nil)
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	fileB := seedFile(t, db, "acme", "b.txt", []byte("bbb"))
	linkFile(t, db, index.ID, fileA.ID, 0)
	linkFile(t, db, index.ID, fileB.ID, 1)

	result, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID})
	require.NoError(t, err)

	require.True(t, result.CreatedCollection)
	require.Equal(t, "vs-1", result.VectorStoreID)
	require.ElementsMatch(t, []string{"file-a.txt", "file-b.txt"}, result.MissingProviderFileIDs)
	require.Equal(t, 2, result.AttachedCount)
	require.Empty(t, result.Errors)

	var saved model.Index
	require.NoError(t, db.First(&saved, "id = ?", index.ID).Error)
	require.NotNil(t, saved.ExternalID)
	require.Equal(t, "vs-1", *saved.ExternalID)
}

func TestPublishIsIdempotent(t *testing.T) {
	gw := &fakeGateway{
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return []provider.Record{
				{"id": "vsf-1", "file_id": "file-a.txt"},
			}, nil
		},
	}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	linkFile(t, db, index.ID, fileA.ID, 0)

	result, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID})
	require.NoError(t, err)
	require.Empty(t, result.MissingProviderFileIDs)
	require.Zero(t, result.AttachedCount)
	require.Zero(t, gw.createVectorStoreCalls)
}

func TestPublishDetachExtra(t *testing.T) {
	gw := &fakeGateway{
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return []provider.Record{
				{"id": "vsf-keep", "file_id": "file-a.txt"},
				{"id": "vsf-extra", "file_id": "file-manual.txt"},
			}, nil
		},
	}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	linkFile(t, db, index.ID, fileA.ID, 0)

	kept, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID})
	require.NoError(t, err)
	require.Empty(t, kept.ExtraProviderFileIDs, "extras stay without detach_extra")
	require.Empty(t, gw.detachedFileIDs)

	result, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID, DetachExtra: true})
	require.NoError(t, err)
	require.Equal(t, []string{"file-manual.txt"}, result.ExtraProviderFileIDs)
	require.Equal(t, 1, result.DetachedCount)
	require.Equal(t, []string{"vsf-extra"}, gw.detachedFileIDs, "detach uses the collection-file id")
}

func TestPublishDryRunTouchesNothing(t *testing.T) {
	gw := &fakeGateway{}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", nil)
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	linkFile(t, db, index.ID, fileA.ID, 0)

	result, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID, DryRun: true})
	require.NoError(t, err)

	require.True(t, result.WouldCreateCollection)
	require.False(t, result.CreatedCollection)
	require.Equal(t, []string{fileA.ID}, result.MissingUploadLocalFileIDs)
	require.Zero(t, gw.createVectorStoreCalls)
	require.Zero(t, gw.createFileCalls)
	require.Empty(t, gw.attachedFileIDs)

	var count int64
	require.NoError(t, db.Model(&model.ProviderUpload{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestPublishAccumulatesAttachErrors(t *testing.T) {
	gw := &fakeGateway{
		attachFn: func(vectorStoreID, fileID string, attributes, chunkingStrategy map[string]interface{}) (provider.Record, error) {
			if fileID == "file-a.txt" {
				return nil, errors.New("attach rejected")
			}
			return provider.Record{"id": "vsf-" + fileID}, nil
		},
	}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	fileB := seedFile(t, db, "acme", "b.txt", []byte("bbb"))
	linkFile(t, db, index.ID, fileA.ID, 0)
	linkFile(t, db, index.ID, fileB.ID, 1)

	result, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID})
	require.NoError(t, err, "per-item failures never abort the publish")
	require.Equal(t, 1, result.AttachedCount)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "attach rejected")
}

func TestPublishChunkingOverrideWins(t *testing.T) {
	var seen map[string]interface{}
	gw := &fakeGateway{
		attachFn: func(vectorStoreID, fileID string, attributes, chunkingStrategy map[string]interface{}) (provider.Record, error) {
			seen = chunkingStrategy
			return provider.Record{"id": "vsf-" + fileID}, nil
		},
	}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	fileA.SetChunkingStrategy(map[string]interface{}{"type": "auto"})
	require.NoError(t, db.Save(fileA).Error)

	link := linkFile(t, db, index.ID, fileA.ID, 0)
	link.SetChunkingOverride(map[string]interface{}{"type": "static", "max_chunk_size_tokens": float64(512)})
	require.NoError(t, db.Save(link).Error)

	_, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID})
	require.NoError(t, err)
	require.Equal(t, "static", seen["type"], "association override beats the file default")
}

func TestPublishIndexNotFound(t *testing.T) {
	svc, _ := newPublishFixture(t, &fakeGateway{})
	_, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: "nope"})
	require.ErrorIs(t, err, ErrIndexNotFound)
}

func TestPublishUnresolvedRemoteFileIsError(t *testing.T) {
	gw := &fakeGateway{
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return []provider.Record{{"id": "vsf-opaque"}}, nil
		},
	}
	namedUploads(gw)
	svc, db := newPublishFixture(t, gw)

	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	fileA := seedFile(t, db, "acme", "a.txt", []byte("aaa"))
	linkFile(t, db, index.ID, fileA.ID, 0)

	result, err := svc.Publish(context.Background(), "acme", PublishInput{IndexID: index.ID})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "unresolved provider file id")
}
