package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ragsync/internal/model"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

// StatusService pulls remote indexing state down into the local catalog. It
// never writes to the provider; a status sync is always safe to repeat.
type StatusService struct {
	indexRepo *repository.IndexRepository
	gateways  GatewayResolver
	reports   ReportPublisher
	logger    *zap.Logger
	listLimit int
}

func NewStatusService(
	indexRepo *repository.IndexRepository,
	gateways GatewayResolver,
	reports ReportPublisher,
	logger *zap.Logger,
	listLimit int,
) *StatusService {
	if listLimit <= 0 {
		listLimit = 1000
	}
	return &StatusService{
		indexRepo: indexRepo,
		gateways:  gateways,
		reports:   reports,
		logger:    logger,
		listLimit: listLimit,
	}
}

// FileStatusRow is one remote file's normalized indexing state.
type FileStatusRow struct {
	ProviderFileID string `json:"provider_file_id"`
	Status         string `json:"status"`
	RawStatus      string `json:"raw_status"`
}

type StatusResult struct {
	IndexID      string          `json:"index_id"`
	ProviderType string          `json:"provider_type"`
	Status       string          `json:"status"`
	Skipped      bool            `json:"skipped"`
	FileStatuses []FileStatusRow `json:"file_statuses,omitempty"`
}

type DomainStatusResult struct {
	Domain  string         `json:"domain"`
	Results []StatusResult `json:"results"`
	Errors  []string       `json:"errors"`
}

// SyncIndex refreshes one index's indexing_status from the provider. A
// completed index is skipped unless force is set, so steady-state polling
// stays cheap.
func (s *StatusService) SyncIndex(ctx context.Context, domain, indexID string, force bool) (*StatusResult, error) {
	index, err := s.indexRepo.GetByIDAndDomain(indexID, domain)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, ErrIndexNotFound
	}

	result := &StatusResult{IndexID: index.ID, ProviderType: index.ProviderType}

	if index.IndexingStatus == model.IndexStatusCompleted && !force {
		result.Status = index.IndexingStatus
		result.Skipped = true
		return result, nil
	}

	if index.ExternalID == nil || *index.ExternalID == "" {
		result.Status = model.IndexStatusNotIndexed
		if index.IndexingStatus != model.IndexStatusNotIndexed {
			index.IndexingStatus = model.IndexStatusNotIndexed
			if err := s.indexRepo.Save(index); err != nil {
				return nil, err
			}
		}
		return result, nil
	}

	gateway, err := s.gateways.Gateway(index.ProviderType)
	if err != nil {
		return nil, err
	}

	collection, err := gateway.RetrieveVectorStore(ctx, *index.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("retrieve vector store failed: %w", err)
	}

	items, err := gateway.ListVectorStoreFiles(ctx, *index.ExternalID, provider.ListVectorStoreFilesInput{Limit: s.listLimit})
	if err != nil {
		return nil, fmt.Errorf("list vector store files failed: %w", err)
	}

	status := model.IndexStatusUnknown
	if len(items) > 0 {
		anyInProgress, anyUnknown := false, false
		allCompleted := true
		for _, item := range items {
			raw := provider.FileStatus(item)
			normalized := normalizeIndexingStatus(raw)
			result.FileStatuses = append(result.FileStatuses, FileStatusRow{
				ProviderFileID: provider.ExtractFileID(item),
				Status:         normalized,
				RawStatus:      raw,
			})
			switch normalized {
			case model.IndexStatusFailed:
				// Highest priority; short-circuits the aggregation below.
				status = model.IndexStatusFailed
			case model.IndexStatusInProgress:
				anyInProgress = true
				allCompleted = false
			case model.IndexStatusCompleted:
			default:
				anyUnknown = true
				allCompleted = false
			}
		}
		if status != model.IndexStatusFailed {
			switch {
			case anyInProgress:
				status = model.IndexStatusInProgress
			case allCompleted:
				status = model.IndexStatusCompleted
			case anyUnknown:
				// Inconclusive per-file evidence; the collection's own status
				// field is the next best signal.
				if raw := collection.StringField("status"); raw != "" {
					status = normalizeIndexingStatus(raw)
				} else {
					status = model.IndexStatusUnknown
				}
			}
		}
	} else if raw := collection.StringField("status"); raw != "" {
		status = normalizeIndexingStatus(raw)
	} else {
		status = model.IndexStatusNotIndexed
	}

	previous := index.IndexingStatus
	index.IndexingStatus = status
	if status == model.IndexStatusCompleted && previous != model.IndexStatusCompleted {
		now := time.Now().UTC()
		index.IndexedAt = &now
	}

	// Snapshot the raw collection payload, and backfill expires_after when the
	// local record never declared one.
	meta := index.MetadataValue()
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["provider_payload"] = map[string]interface{}(collection)
	index.SetMetadata(meta)
	if index.ExpiresAfter == "" {
		if expires := collection.MapField("expires_after"); expires != nil {
			index.SetExpiresAfter(map[string]interface{}(expires))
		}
	}

	if err := s.indexRepo.Save(index); err != nil {
		return nil, err
	}

	result.Status = status
	s.logger.Info("status sync finished",
		zap.String("index_id", index.ID),
		zap.String("provider_type", index.ProviderType),
		zap.String("status", status),
		zap.Int("files", len(result.FileStatuses)),
	)
	emitReport(ctx, s.reports, s.logger, model.ReportKindStatus, domain, index.ProviderType, index.ID, result, 0)

	return result, nil
}

// SyncDomainIndexes refreshes every published index in a domain. Per-index
// failures accumulate and do not stop the sweep.
func (s *StatusService) SyncDomainIndexes(ctx context.Context, domain string, force bool) (*DomainStatusResult, error) {
	indexes, err := s.indexRepo.ListByDomain(domain, 0, 0)
	if err != nil {
		return nil, err
	}

	out := &DomainStatusResult{Domain: domain, Errors: []string{}}
	for _, index := range indexes {
		res, err := s.SyncIndex(ctx, domain, index.ID, force)
		if err != nil {
			out.Errors = append(out.Errors, fmt.Sprintf("index %s: %v", index.ID, err))
			continue
		}
		out.Results = append(out.Results, *res)
	}
	return out, nil
}

// normalizeIndexingStatus maps remote status vocabulary onto the local state
// machine. Unseen values normalize to unknown rather than guessing.
func normalizeIndexingStatus(raw string) string {
	switch raw {
	case "failed", "error", "cancelled", "canceled":
		return model.IndexStatusFailed
	case "in_progress", "processing", "running", "queued":
		return model.IndexStatusInProgress
	case "completed", "done", "success":
		return model.IndexStatusCompleted
	case "":
		return model.IndexStatusUnknown
	default:
		return model.IndexStatusUnknown
	}
}
