package app

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"ragsync/internal/model"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

// PublishService reconciles an index's declared file set onto its remote
// collection. The local catalog is the source of truth; the remote collection
// is treated as a drifted cache of it, so every publish recomputes the full
// attach/detach diff instead of trusting a delta log.
type PublishService struct {
	indexRepo     *repository.IndexRepository
	fileRepo      *repository.FileRepository
	indexFileRepo *repository.IndexFileRepository
	uploads       *UploadsService
	gateways      GatewayResolver
	reports       ReportPublisher
	logger        *zap.Logger
	listLimit     int
}

func NewPublishService(
	indexRepo *repository.IndexRepository,
	fileRepo *repository.FileRepository,
	indexFileRepo *repository.IndexFileRepository,
	uploads *UploadsService,
	gateways GatewayResolver,
	reports ReportPublisher,
	logger *zap.Logger,
	listLimit int,
) *PublishService {
	if listLimit <= 0 {
		listLimit = 1000
	}
	return &PublishService{
		indexRepo:     indexRepo,
		fileRepo:      fileRepo,
		indexFileRepo: indexFileRepo,
		uploads:       uploads,
		gateways:      gateways,
		reports:       reports,
		logger:        logger,
		listLimit:     listLimit,
	}
}

type PublishInput struct {
	IndexID     string
	ForceUpload bool
	DetachExtra bool
	DryRun      bool
}

// PublishResult reports the computed plan and what was applied. The id sets
// are included regardless of dry-run so both modes are observable.
type PublishResult struct {
	IndexID               string   `json:"index_id"`
	ProviderType          string   `json:"provider_type"`
	VectorStoreID         string   `json:"vector_store_id"`
	CreatedCollection     bool     `json:"created_collection"`
	WouldCreateCollection bool     `json:"would_create_collection"`
	DryRun                bool     `json:"dry_run"`

	DesiredProviderFileIDs  []string `json:"desired_provider_file_ids"`
	ExistingProviderFileIDs []string `json:"existing_provider_file_ids"`
	MissingProviderFileIDs  []string `json:"missing_provider_file_ids"`
	ExtraProviderFileIDs    []string `json:"extra_provider_file_ids"`

	// Dry-run only: local files whose upload could not be resolved without a
	// real remote call.
	MissingUploadLocalFileIDs []string `json:"missing_upload_local_file_ids,omitempty"`

	AttachedCount int      `json:"attached_count"`
	DetachedCount int      `json:"detached_count"`
	Errors        []string `json:"errors"`
}

// Publish applies (or, in dry-run, plans) the minimal attach/detach set for
// an index. Per-file failures accumulate into the result; only structural
// failures (index missing, collection creation not returning an id) abort.
func (s *PublishService) Publish(ctx context.Context, domain string, input PublishInput) (*PublishResult, error) {
	index, err := s.indexRepo.GetByIDAndDomain(input.IndexID, domain)
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, ErrIndexNotFound
	}

	gateway, err := s.gateways.Gateway(index.ProviderType)
	if err != nil {
		return nil, err
	}

	result := &PublishResult{
		IndexID:      index.ID,
		ProviderType: index.ProviderType,
		DryRun:       input.DryRun,
		Errors:       []string{},
	}

	// Step 1: ensure the remote collection exists.
	vectorStoreID := ""
	if index.ExternalID != nil {
		vectorStoreID = *index.ExternalID
	}
	if vectorStoreID == "" {
		if input.DryRun {
			result.WouldCreateCollection = true
		} else {
			created, err := gateway.CreateVectorStore(ctx, provider.CreateVectorStoreInput{
				Name:         index.Name,
				Description:  index.Description,
				ExpiresAfter: index.ExpiresAfterValue(),
				Metadata:     providerMetadata(index.MetadataValue()),
			})
			if err != nil {
				return nil, fmt.Errorf("create vector store failed: %w", err)
			}
			vectorStoreID = created.StringField("id")
			if vectorStoreID == "" {
				return nil, ErrNoRemoteID
			}
			index.ExternalID = &vectorStoreID
			if err := s.indexRepo.Save(index); err != nil {
				return nil, err
			}
			result.CreatedCollection = true
		}
	}
	result.VectorStoreID = vectorStoreID

	// Step 2: resolve uploads for every attached file, in include order.
	links, err := s.indexFileRepo.ListByIndexID(index.ID)
	if err != nil {
		return nil, err
	}

	desired := make(map[string]struct{})
	chunkingByProviderFileID := make(map[string]map[string]interface{})

	for _, link := range links {
		var upload *model.ProviderUpload
		if input.DryRun {
			upload, err = s.uploads.Peek(index.ProviderType, link.FileID, input.ForceUpload)
			if err == nil && upload == nil {
				result.MissingUploadLocalFileIDs = append(result.MissingUploadLocalFileIDs, link.FileID)
				continue
			}
		} else {
			upload, err = s.uploads.GetOrSync(ctx, index.ProviderType, link.FileID, input.ForceUpload, nil)
		}
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("upload local_file_id=%s: %v", link.FileID, err))
			continue
		}
		externalFileID := upload.ExternalFileIDValue()
		if externalFileID == "" {
			continue
		}

		desired[externalFileID] = struct{}{}
		if chunking := s.chunkingFor(link); chunking != nil {
			chunkingByProviderFileID[externalFileID] = chunking
		}

		if !input.DryRun && link.ExternalID != externalFileID {
			link := link
			link.ExternalID = externalFileID
			if err := s.indexFileRepo.Save(&link); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("record external id local_file_id=%s: %v", link.FileID, err))
			}
		}
	}

	// Step 3: enumerate the remote collection's current files.
	existing := make(map[string]struct{})
	collectionFileIDByProviderFileID := make(map[string]string)

	if vectorStoreID != "" {
		items, err := gateway.ListVectorStoreFiles(ctx, vectorStoreID, provider.ListVectorStoreFilesInput{Limit: s.listLimit})
		if err != nil {
			return nil, fmt.Errorf("list vector store files failed: %w", err)
		}
		for _, item := range items {
			collectionFileID := item.StringField("id")
			providerFileID := provider.ExtractFileID(item)

			if providerFileID == "" && collectionFileID != "" {
				detail, err := gateway.RetrieveVectorStoreFile(ctx, vectorStoreID, collectionFileID)
				if err == nil {
					providerFileID = provider.ExtractFileID(detail)
				}
			}
			if providerFileID == "" {
				result.Errors = append(result.Errors, fmt.Sprintf("unresolved provider file id for collection file %q", collectionFileID))
				continue
			}

			existing[providerFileID] = struct{}{}
			if collectionFileID != "" {
				collectionFileIDByProviderFileID[providerFileID] = collectionFileID
			}
		}
	}

	// Step 4: set diff.
	missing := diffIDs(desired, existing)
	var extra []string
	if input.DetachExtra {
		extra = diffIDs(existing, desired)
	}

	result.DesiredProviderFileIDs = sortedIDs(desired)
	result.ExistingProviderFileIDs = sortedIDs(existing)
	result.MissingProviderFileIDs = missing
	result.ExtraProviderFileIDs = extra

	// Step 5: apply, unless dry-run. Each attach/detach failure is recorded
	// and does not abort the remaining operations.
	if !input.DryRun {
		for _, providerFileID := range missing {
			if _, err := gateway.AttachFileToVectorStore(ctx, vectorStoreID, providerFileID, nil, chunkingByProviderFileID[providerFileID]); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("attach provider_file_id=%s: %v", providerFileID, err))
				continue
			}
			result.AttachedCount++
		}

		for _, providerFileID := range extra {
			collectionFileID := collectionFileIDByProviderFileID[providerFileID]
			if collectionFileID == "" {
				continue
			}
			if err := gateway.DetachFileFromVectorStore(ctx, vectorStoreID, collectionFileID); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("detach provider_file_id=%s collection_file_id=%s: %v", providerFileID, collectionFileID, err))
				continue
			}
			result.DetachedCount++
		}
	}

	s.logger.Info("publish finished",
		zap.String("index_id", index.ID),
		zap.String("provider_type", index.ProviderType),
		zap.Bool("dry_run", input.DryRun),
		zap.Int("attached", result.AttachedCount),
		zap.Int("detached", result.DetachedCount),
		zap.Int("errors", len(result.Errors)),
	)
	if !input.DryRun {
		emitReport(ctx, s.reports, s.logger, model.ReportKindPublish, domain, index.ProviderType, index.ID, result, len(result.Errors))
	}

	return result, nil
}

// chunkingFor picks the association override when present, otherwise the
// file's own directive.
func (s *PublishService) chunkingFor(link model.IndexFile) map[string]interface{} {
	if override := link.ChunkingOverride(); override != nil {
		return override
	}
	file, err := s.fileRepo.GetByID(link.FileID)
	if err != nil || file == nil {
		return nil
	}
	return file.ChunkingStrategy()
}

// providerMetadata keeps only string-valued metadata entries, dropping the
// cached provider payload snapshot.
func providerMetadata(meta map[string]interface{}) map[string]string {
	if len(meta) == 0 {
		return nil
	}
	out := make(map[string]string)
	for k, v := range meta {
		if k == "provider_payload" {
			continue
		}
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func diffIDs(from, subtract map[string]struct{}) []string {
	var out []string
	for id := range from {
		if _, ok := subtract[id]; !ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
