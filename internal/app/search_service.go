package app

import (
	"context"
	"fmt"

	"ragsync/internal/model"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

// SearchService proxies read-only collection queries to the provider for an
// index that has already been published.
type SearchService struct {
	indexRepo *repository.IndexRepository
	gateways  GatewayResolver
	listLimit int
}

func NewSearchService(indexRepo *repository.IndexRepository, gateways GatewayResolver, listLimit int) *SearchService {
	if listLimit <= 0 {
		listLimit = 1000
	}
	return &SearchService{indexRepo: indexRepo, gateways: gateways, listLimit: listLimit}
}

type SearchInput struct {
	Query          string
	Filters        map[string]interface{}
	MaxNumResults  int
	RankingOptions map[string]interface{}
	RewriteQuery   *bool
}

func (s *SearchService) Search(ctx context.Context, domain, indexID string, input SearchInput) ([]provider.Record, error) {
	index, gateway, err := s.resolve(domain, indexID)
	if err != nil {
		return nil, err
	}

	records, err := gateway.SearchVectorStore(ctx, *index.ExternalID, provider.SearchInput{
		Query:          input.Query,
		Filters:        input.Filters,
		MaxNumResults:  input.MaxNumResults,
		RankingOptions: input.RankingOptions,
		RewriteQuery:   input.RewriteQuery,
	})
	if err != nil {
		return nil, fmt.Errorf("search vector store failed: %w", err)
	}
	return records, nil
}

// ListProviderFiles returns the raw remote file records of an index's
// collection, untouched, for operator inspection.
func (s *SearchService) ListProviderFiles(ctx context.Context, domain, indexID string) ([]provider.Record, error) {
	index, gateway, err := s.resolve(domain, indexID)
	if err != nil {
		return nil, err
	}

	records, err := gateway.ListVectorStoreFiles(ctx, *index.ExternalID, provider.ListVectorStoreFilesInput{Limit: s.listLimit})
	if err != nil {
		return nil, fmt.Errorf("list vector store files failed: %w", err)
	}
	return records, nil
}

func (s *SearchService) resolve(domain, indexID string) (*model.Index, provider.Gateway, error) {
	index, err := s.indexRepo.GetByIDAndDomain(indexID, domain)
	if err != nil {
		return nil, nil, err
	}
	if index == nil {
		return nil, nil, ErrIndexNotFound
	}
	if index.ExternalID == nil || *index.ExternalID == "" {
		return nil, nil, ErrIndexNotPublished
	}

	gateway, err := s.gateways.Gateway(index.ProviderType)
	if err != nil {
		return nil, nil, err
	}
	return index, gateway, nil
}
