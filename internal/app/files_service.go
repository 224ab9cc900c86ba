package app

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"ragsync/internal/model"
	"ragsync/internal/pkg/filestore"
	"ragsync/internal/repository"
)

type FilesService struct {
	fileRepo *repository.FileRepository
	store    *filestore.Store
}

func NewFilesService(fileRepo *repository.FileRepository, store *filestore.Store) *FilesService {
	return &FilesService{fileRepo: fileRepo, store: store}
}

// CreateFileInput carries a new file's metadata plus its byte stream.
type CreateFileInput struct {
	Domain   string
	FileName string
	FileType string
	Content  io.Reader
	Tags     map[string]interface{}
	Notes    string
	Chunking map[string]interface{}
}

func (s *FilesService) Create(input CreateFileInput) (*model.File, error) {
	if input.Domain == "" || input.Content == nil {
		return nil, ErrInvalidInput
	}
	name := filepath.Base(strings.TrimSpace(input.FileName))
	if name == "" || name == "." {
		name = "file"
	}
	fileType := input.FileType
	if fileType == "" {
		fileType = "application/octet-stream"
	}

	fileID := uuid.NewString()
	path := s.store.Path(input.Domain, fileID, name)
	size, err := s.store.WriteFrom(path, input.Content)
	if err != nil {
		return nil, err
	}

	file := &model.File{
		ID:        fileID,
		Domain:    input.Domain,
		FileName:  name,
		FileType:  fileType,
		LocalPath: path,
		SizeBytes: size,
		Notes:     input.Notes,
	}
	file.SetTags(input.Tags)
	file.SetChunkingStrategy(input.Chunking)

	if err := s.fileRepo.Create(file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *FilesService) List(domain string, offset, limit int) ([]model.File, error) {
	if domain == "" {
		return nil, ErrInvalidInput
	}
	return s.fileRepo.ListByDomain(domain, offset, limit)
}

func (s *FilesService) Get(domain, fileID string) (*model.File, error) {
	if domain == "" || fileID == "" {
		return nil, ErrInvalidInput
	}
	file, err := s.fileRepo.GetByIDAndDomain(fileID, domain)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}
	return file, nil
}

// UpdateFileInput holds optional mutations; nil fields are left untouched.
type UpdateFileInput struct {
	FileName *string
	Tags     map[string]interface{}
	Notes    *string
	Chunking map[string]interface{}
}

// Update renames and retags a file. A rename moves the backing bytes to the
// new deterministic path.
func (s *FilesService) Update(domain, fileID string, input UpdateFileInput) (*model.File, error) {
	file, err := s.Get(domain, fileID)
	if err != nil {
		return nil, err
	}

	if input.FileName != nil {
		newName := filepath.Base(strings.TrimSpace(*input.FileName))
		if newName == "" || newName == "." {
			return nil, ErrInvalidInput
		}
		if newName != file.FileName {
			if !s.store.Exists(file.LocalPath) {
				return nil, ErrFileMissingOnDisk
			}
			newPath, err := s.store.Rename(file.Domain, file.ID, file.LocalPath, newName)
			if err != nil {
				return nil, err
			}
			file.LocalPath = newPath
			file.FileName = newName
		}
	}

	if input.Tags != nil {
		file.SetTags(input.Tags)
	}
	if input.Notes != nil {
		file.Notes = *input.Notes
	}
	if input.Chunking != nil {
		file.SetChunkingStrategy(input.Chunking)
	}

	if err := s.fileRepo.Save(file); err != nil {
		return nil, err
	}
	return file, nil
}

// Delete removes the catalog row and the backing bytes.
func (s *FilesService) Delete(domain, fileID string) error {
	file, err := s.Get(domain, fileID)
	if err != nil {
		return err
	}

	// Disk cleanup is best effort; the row is removed regardless.
	_ = s.store.Remove(file.LocalPath)

	return s.fileRepo.Delete(file.ID, domain)
}
