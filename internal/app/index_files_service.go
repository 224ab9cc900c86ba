package app

import (
	"ragsync/internal/model"
	"ragsync/internal/repository"
)

type IndexFilesService struct {
	indexRepo     *repository.IndexRepository
	fileRepo      *repository.FileRepository
	indexFileRepo *repository.IndexFileRepository
}

func NewIndexFilesService(
	indexRepo *repository.IndexRepository,
	fileRepo *repository.FileRepository,
	indexFileRepo *repository.IndexFileRepository,
) *IndexFilesService {
	return &IndexFilesService{
		indexRepo:     indexRepo,
		fileRepo:      fileRepo,
		indexFileRepo: indexFileRepo,
	}
}

// Attach associates a file with an index, appending it at
// max(include_order)+1. Both the index and the file must belong to domain.
func (s *IndexFilesService) Attach(domain, indexID, fileID string, chunkingOverride map[string]interface{}) (*model.IndexFile, error) {
	index, err := s.indexRepo.GetByIDAndDomain(indexID, domain)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, ErrIndexNotFound
	}

	file, err := s.fileRepo.GetByIDAndDomain(fileID, domain)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}

	existing, err := s.indexFileRepo.Get(indexID, fileID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyAttached
	}

	maxOrder, err := s.indexFileRepo.MaxIncludeOrder(indexID)
	if err != nil {
		return nil, err
	}

	link := &model.IndexFile{
		IndexID:      indexID,
		FileID:       fileID,
		IncludeOrder: maxOrder + 1,
	}
	link.SetChunkingOverride(chunkingOverride)

	if err := s.indexFileRepo.Create(link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *IndexFilesService) Detach(domain, indexID, fileID string) (bool, error) {
	index, err := s.indexRepo.GetByIDAndDomain(indexID, domain)
	if err != nil {
		return false, err
	}
	if index == nil {
		return false, ErrIndexNotFound
	}
	return s.indexFileRepo.Delete(indexID, fileID)
}

// IndexFileRow pairs an association with its file, in include order.
type IndexFileRow struct {
	Link model.IndexFile `json:"link"`
	File model.File      `json:"file"`
}

// ListRows returns the index's files in include order; files from other
// domains never leak in because attachment is domain-checked.
func (s *IndexFilesService) ListRows(domain, indexID string) ([]IndexFileRow, error) {
	index, err := s.indexRepo.GetByIDAndDomain(indexID, domain)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, ErrIndexNotFound
	}

	links, err := s.indexFileRepo.ListByIndexID(indexID)
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.FileID)
	}
	files, err := s.fileRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	fileByID := make(map[string]model.File, len(files))
	for _, f := range files {
		fileByID[f.ID] = f
	}

	rows := make([]IndexFileRow, 0, len(links))
	for _, link := range links {
		file, ok := fileByID[link.FileID]
		if !ok || file.Domain != domain {
			continue
		}
		rows = append(rows, IndexFileRow{Link: link, File: file})
	}
	return rows, nil
}
