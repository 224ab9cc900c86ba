package app

import (
	"strings"

	"github.com/google/uuid"

	"ragsync/internal/model"
	"ragsync/internal/repository"
)

type IndexesService struct {
	indexRepo *repository.IndexRepository
}

func NewIndexesService(indexRepo *repository.IndexRepository) *IndexesService {
	return &IndexesService{indexRepo: indexRepo}
}

type CreateIndexInput struct {
	Domain       string
	ProviderType string
	Name         string
	Description  string
	ExpiresAfter map[string]interface{}
	Metadata     map[string]interface{}
}

func (s *IndexesService) Create(input CreateIndexInput) (*model.Index, error) {
	if input.Domain == "" || input.ProviderType == "" {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "New index"
	}

	index := &model.Index{
		ID:             uuid.NewString(),
		Domain:         input.Domain,
		ProviderType:   input.ProviderType,
		Name:           name,
		Description:    input.Description,
		IndexingStatus: model.IndexStatusNotIndexed,
	}
	index.SetExpiresAfter(input.ExpiresAfter)
	index.SetMetadata(input.Metadata)

	if err := s.indexRepo.Create(index); err != nil {
		return nil, err
	}
	return index, nil
}

func (s *IndexesService) List(domain string, offset, limit int) ([]model.Index, error) {
	if domain == "" {
		return nil, ErrInvalidInput
	}
	return s.indexRepo.ListByDomain(domain, offset, limit)
}

func (s *IndexesService) Get(domain, indexID string) (*model.Index, error) {
	if domain == "" || indexID == "" {
		return nil, ErrInvalidInput
	}
	index, err := s.indexRepo.GetByIDAndDomain(indexID, domain)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, ErrIndexNotFound
	}
	return index, nil
}

type UpdateIndexInput struct {
	Name         *string
	Description  *string
	ExpiresAfter map[string]interface{}
	Metadata     map[string]interface{}
}

func (s *IndexesService) Update(domain, indexID string, input UpdateIndexInput) (*model.Index, error) {
	index, err := s.Get(domain, indexID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		index.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		index.Description = *input.Description
	}
	if input.ExpiresAfter != nil {
		index.SetExpiresAfter(input.ExpiresAfter)
	}
	if input.Metadata != nil {
		index.SetMetadata(input.Metadata)
	}

	if err := s.indexRepo.Save(index); err != nil {
		return nil, err
	}
	return index, nil
}

// Delete removes the index and (cascaded) its file associations. The remote
// collection, if any, is left to the provider's own expiry policy.
func (s *IndexesService) Delete(domain, indexID string) error {
	index, err := s.Get(domain, indexID)
	if err != nil {
		return err
	}
	return s.indexRepo.Delete(index.ID, domain)
}
