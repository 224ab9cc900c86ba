package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ragsync/internal/repository"
)

func newIndexFilesFixture(t *testing.T) (*IndexFilesService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc := NewIndexFilesService(
		repository.NewIndexRepository(db),
		repository.NewFileRepository(db),
		repository.NewIndexFileRepository(db),
	)
	return svc, db
}

func TestAttachAssignsSequentialOrder(t *testing.T) {
	svc, db := newIndexFilesFixture(t)
	index := seedIndex(t, db, "acme", "openai", nil)
	fileA := seedFile(t, db, "acme", "a.txt", []byte("a"))
	fileB := seedFile(t, db, "acme", "b.txt", []byte("b"))

	first, err := svc.Attach("acme", index.ID, fileA.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 1, first.IncludeOrder, "ordering starts at 1")

	second, err := svc.Attach("acme", index.ID, fileB.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 2, second.IncludeOrder)
}

func TestAttachDuplicateRejected(t *testing.T) {
	svc, db := newIndexFilesFixture(t)
	index := seedIndex(t, db, "acme", "openai", nil)
	file := seedFile(t, db, "acme", "a.txt", []byte("a"))

	_, err := svc.Attach("acme", index.ID, file.ID, nil)
	require.NoError(t, err)
	_, err = svc.Attach("acme", index.ID, file.ID, nil)
	require.ErrorIs(t, err, ErrAlreadyAttached)
}

func TestAttachRejectsCrossDomainFile(t *testing.T) {
	svc, db := newIndexFilesFixture(t)
	index := seedIndex(t, db, "acme", "openai", nil)
	foreign := seedFile(t, db, "globex", "a.txt", []byte("a"))

	_, err := svc.Attach("acme", index.ID, foreign.ID, nil)
	require.ErrorIs(t, err, ErrFileNotFound)
}

func TestListRowsInIncludeOrder(t *testing.T) {
	svc, db := newIndexFilesFixture(t)
	index := seedIndex(t, db, "acme", "openai", nil)
	fileA := seedFile(t, db, "acme", "a.txt", []byte("a"))
	fileB := seedFile(t, db, "acme", "b.txt", []byte("b"))

	_, err := svc.Attach("acme", index.ID, fileB.ID, nil)
	require.NoError(t, err)
	_, err = svc.Attach("acme", index.ID, fileA.ID, nil)
	require.NoError(t, err)

	rows, err := svc.ListRows("acme", index.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, fileB.ID, rows[0].File.ID, "attachment order, not name order")
	require.Equal(t, fileA.ID, rows[1].File.ID)
}

func TestDetachMissingLinkIsNotAnError(t *testing.T) {
	svc, db := newIndexFilesFixture(t)
	index := seedIndex(t, db, "acme", "openai", nil)

	deleted, err := svc.Detach("acme", index.ID, "never-attached")
	require.NoError(t, err)
	require.False(t, deleted)
}
