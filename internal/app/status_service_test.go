package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragsync/internal/model"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

func newStatusFixture(t *testing.T, gw *fakeGateway) (*StatusService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewStatusService(repository.NewIndexRepository(db), fakeResolver{gateway: gw}, nil, zap.NewNop(), 100)
	return svc, db
}

func fileRecords(statuses ...string) []provider.Record {
	out := make([]provider.Record, 0, len(statuses))
	for i, status := range statuses {
		out = append(out, provider.Record{
			"id":      "vsf-" + string(rune('a'+i)),
			"file_id": "file-" + string(rune('a'+i)),
			"status":  status,
		})
	}
	return out
}

func TestSyncIndexAggregation(t *testing.T) {
	cases := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"any failed wins", []string{"completed", "failed", "in_progress"}, model.IndexStatusFailed},
		{"cancelled counts as failed", []string{"completed", "cancelled"}, model.IndexStatusFailed},
		{"in progress beats completed", []string{"completed", "processing"}, model.IndexStatusInProgress},
		{"queued is in progress", []string{"queued"}, model.IndexStatusInProgress},
		{"all completed", []string{"completed", "done", "success"}, model.IndexStatusCompleted},
		{"unrecognized with silent collection stays unknown", []string{"completed", "weird_state"}, model.IndexStatusUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := &fakeGateway{
				listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
					return fileRecords(tc.statuses...), nil
				},
			}
			svc, db := newStatusFixture(t, gw)
			index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))

			result, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
			require.NoError(t, err)
			require.Equal(t, tc.want, result.Status)

			var saved model.Index
			require.NoError(t, db.First(&saved, "id = ?", index.ID).Error)
			require.Equal(t, tc.want, saved.IndexingStatus)
		})
	}
}

func TestSyncIndexInconclusiveFilesFallBackToCollection(t *testing.T) {
	gw := &fakeGateway{
		retrieveVectorStoreFn: func(vectorStoreID string) (provider.Record, error) {
			return provider.Record{"id": vectorStoreID, "status": "in_progress"}, nil
		},
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return fileRecords("completed", "weird_state"), nil
		},
	}
	svc, db := newStatusFixture(t, gw)
	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))

	result, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
	require.NoError(t, err)
	require.Equal(t, model.IndexStatusInProgress, result.Status,
		"unrecognized per-file evidence defers to the collection's own status")
}

func TestSyncIndexCollectionStatusFallback(t *testing.T) {
	gw := &fakeGateway{
		retrieveVectorStoreFn: func(vectorStoreID string) (provider.Record, error) {
			return provider.Record{"id": vectorStoreID, "status": "in_progress"}, nil
		},
	}
	svc, db := newStatusFixture(t, gw)
	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))

	result, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
	require.NoError(t, err)
	require.Equal(t, model.IndexStatusInProgress, result.Status, "zero files falls back to the collection status")
}

func TestSyncIndexZeroEvidenceIsNotIndexed(t *testing.T) {
	svc, db := newStatusFixture(t, &fakeGateway{})
	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))

	result, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
	require.NoError(t, err)
	require.Equal(t, model.IndexStatusNotIndexed, result.Status)
}

func TestSyncIndexSkipsCompletedUnlessForced(t *testing.T) {
	gw := &fakeGateway{
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return fileRecords("failed"), nil
		},
	}
	svc, db := newStatusFixture(t, gw)
	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	index.IndexingStatus = model.IndexStatusCompleted
	require.NoError(t, db.Save(index).Error)

	skipped, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
	require.NoError(t, err)
	require.True(t, skipped.Skipped)
	require.Equal(t, model.IndexStatusCompleted, skipped.Status)

	forced, err := svc.SyncIndex(context.Background(), "acme", index.ID, true)
	require.NoError(t, err)
	require.False(t, forced.Skipped)
	require.Equal(t, model.IndexStatusFailed, forced.Status)
}

func TestSyncIndexStampsIndexedAtOnCompletion(t *testing.T) {
	gw := &fakeGateway{
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return fileRecords("completed"), nil
		},
	}
	svc, db := newStatusFixture(t, gw)
	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	require.Nil(t, index.IndexedAt)

	_, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
	require.NoError(t, err)

	var saved model.Index
	require.NoError(t, db.First(&saved, "id = ?", index.ID).Error)
	require.NotNil(t, saved.IndexedAt)
	firstStamp := *saved.IndexedAt

	_, err = svc.SyncIndex(context.Background(), "acme", index.ID, true)
	require.NoError(t, err)
	require.NoError(t, db.First(&saved, "id = ?", index.ID).Error)
	require.True(t, firstStamp.Equal(*saved.IndexedAt), "already-completed sync keeps the original stamp")
}

func TestSyncIndexSnapshotsProviderPayload(t *testing.T) {
	gw := &fakeGateway{
		retrieveVectorStoreFn: func(vectorStoreID string) (provider.Record, error) {
			return provider.Record{
				"id":            vectorStoreID,
				"status":        "completed",
				"expires_after": map[string]interface{}{"anchor": "last_active_at", "days": float64(7)},
			}, nil
		},
	}
	svc, db := newStatusFixture(t, gw)
	index := seedIndex(t, db, "acme", "openai", strPtr("vs-1"))

	_, err := svc.SyncIndex(context.Background(), "acme", index.ID, false)
	require.NoError(t, err)

	var saved model.Index
	require.NoError(t, db.First(&saved, "id = ?", index.ID).Error)
	meta := saved.MetadataValue()
	require.Contains(t, meta, "provider_payload")
	require.Equal(t, "last_active_at", saved.ExpiresAfterValue()["anchor"], "expires_after backfilled from remote")
}

func TestSyncDomainIndexesContinuesPastFailures(t *testing.T) {
	gw := &fakeGateway{
		listVectorStoreFilesFn: func(vectorStoreID string, in provider.ListVectorStoreFilesInput) ([]provider.Record, error) {
			return fileRecords("completed"), nil
		},
	}
	svc, db := newStatusFixture(t, gw)
	seedIndex(t, db, "acme", "openai", strPtr("vs-1"))
	seedIndex(t, db, "acme", "openai", nil)

	result, err := svc.SyncDomainIndexes(context.Background(), "acme", false)
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	require.Empty(t, result.Errors)
}
