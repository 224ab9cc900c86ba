package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ragsync/internal/model"
	"ragsync/internal/pkg/filestore"
	"ragsync/internal/pkg/hashutil"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

// DriftService sweeps a provider's remote state back into the local catalog:
// shadow indexes for unknown collections, imported files for unknown remote
// files, and byte-level mismatch detection for files known on both sides.
// It works bottom-up from the provider's own enumeration, so unlike publish
// it has to infer which domain owns what.
type DriftService struct {
	indexRepo     *repository.IndexRepository
	fileRepo      *repository.FileRepository
	indexFileRepo *repository.IndexFileRepository
	uploadRepo    *repository.ProviderUploadRepository
	store         *filestore.Store
	gateways      GatewayResolver
	reports       ReportPublisher
	logger        *zap.Logger
	defaultDomain string
	listLimit     int
}

func NewDriftService(
	indexRepo *repository.IndexRepository,
	fileRepo *repository.FileRepository,
	indexFileRepo *repository.IndexFileRepository,
	uploadRepo *repository.ProviderUploadRepository,
	store *filestore.Store,
	gateways GatewayResolver,
	reports ReportPublisher,
	logger *zap.Logger,
	defaultDomain string,
	listLimit int,
) *DriftService {
	if listLimit <= 0 {
		listLimit = 1000
	}
	if defaultDomain == "" {
		defaultDomain = "default"
	}
	return &DriftService{
		indexRepo:     indexRepo,
		fileRepo:      fileRepo,
		indexFileRepo: indexFileRepo,
		uploadRepo:    uploadRepo,
		store:         store,
		gateways:      gateways,
		reports:       reports,
		logger:        logger,
		defaultDomain: defaultDomain,
		listLimit:     listLimit,
	}
}

// ByteMismatch records a file whose local bytes no longer equal the remote
// copy. Mismatches are reported, never silently repaired.
type ByteMismatch struct {
	LocalFileID    string `json:"local_file_id"`
	ProviderFileID string `json:"provider_file_id"`
	VectorStoreID  string `json:"vector_store_id"`
	LocalSHA256    string `json:"local_sha256"`
	RemoteSHA256   string `json:"remote_sha256"`
}

type DriftResult struct {
	ProviderType    string `json:"provider_type"`
	CollectionsSeen int    `json:"collections_seen"`

	IndexesCreated  int `json:"indexes_created"`
	IndexesUpdated  int `json:"indexes_updated"`
	IndexesKept     int `json:"indexes_kept"`
	IndexesDetached int `json:"indexes_detached"`

	FilesImported      int   `json:"files_imported"`
	FilesKept          int   `json:"files_kept"`
	AssociationsPruned int64 `json:"associations_pruned"`
	UploadsPurged      int64 `json:"uploads_purged"`

	AmbiguousCollections []string       `json:"ambiguous_collections"`
	FilesByteMismatches  []ByteMismatch `json:"files_byte_mismatches"`
	Errors               []string       `json:"errors"`
}

// remoteFile pairs a vector-store file record with its resolved canonical
// provider file id (empty when unresolvable).
type remoteFile struct {
	record           provider.Record
	collectionFileID string
	providerFileID   string
}

// Sync performs the full bidirectional sweep for one provider. Only the
// initial collection enumeration is structural; every later failure is
// recorded in the result and the sweep continues.
func (s *DriftService) Sync(ctx context.Context, providerType string) (*DriftResult, error) {
	gateway, err := s.gateways.Gateway(providerType)
	if err != nil {
		return nil, err
	}

	collections, err := gateway.ListVectorStores(ctx, s.listLimit)
	if err != nil {
		return nil, fmt.Errorf("list vector stores failed: %w", err)
	}

	result := &DriftResult{
		ProviderType:         providerType,
		CollectionsSeen:      len(collections),
		AmbiguousCollections: []string{},
		FilesByteMismatches:  []ByteMismatch{},
		Errors:               []string{},
	}

	remoteIDs := make(map[string]struct{}, len(collections))
	for _, collection := range collections {
		if id := collection.StringField("id"); id != "" {
			remoteIDs[id] = struct{}{}
		}
	}

	s.detachStaleIndexes(providerType, remoteIDs, result)

	for _, collection := range collections {
		s.syncCollection(ctx, gateway, providerType, collection, result)
	}

	s.logger.Info("drift sync finished",
		zap.String("provider_type", providerType),
		zap.Int("collections", result.CollectionsSeen),
		zap.Int("indexes_created", result.IndexesCreated),
		zap.Int("indexes_detached", result.IndexesDetached),
		zap.Int("files_imported", result.FilesImported),
		zap.Int("byte_mismatches", len(result.FilesByteMismatches)),
		zap.Int("errors", len(result.Errors)),
	)
	emitReport(ctx, s.reports, s.logger, model.ReportKindDrift, "", providerType, "", result, len(result.Errors))

	return result, nil
}

// detachStaleIndexes clears external_id on local indexes whose remote
// collection disappeared, and purges upload cache rows that pointed into it.
func (s *DriftService) detachStaleIndexes(providerType string, remoteIDs map[string]struct{}, result *DriftResult) {
	bound, err := s.indexRepo.ListBoundByProviderType(providerType)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("list bound indexes: %v", err))
		return
	}

	for _, index := range bound {
		if index.ExternalID == nil {
			continue
		}
		if _, ok := remoteIDs[*index.ExternalID]; ok {
			continue
		}

		fileIDs, err := s.indexFileRepo.ListFileIDsByIndexID(index.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("detach index %s: %v", index.ID, err))
			continue
		}

		index := index
		index.ExternalID = nil
		index.IndexingStatus = model.IndexStatusNotIndexed
		if err := s.indexRepo.Save(&index); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("detach index %s: %v", index.ID, err))
			continue
		}
		result.IndexesDetached++

		purged, err := s.uploadRepo.DeleteByLocalFileIDs(providerType, fileIDs)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("purge uploads for index %s: %v", index.ID, err))
			continue
		}
		result.UploadsPurged += purged
	}
}

func (s *DriftService) syncCollection(ctx context.Context, gateway provider.Gateway, providerType string, collection provider.Record, result *DriftResult) {
	vectorStoreID := collection.StringField("id")
	if vectorStoreID == "" {
		result.Errors = append(result.Errors, "collection record without id")
		return
	}

	locals, err := s.indexRepo.ListByExternalID(providerType, vectorStoreID)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("collection %s: %v", vectorStoreID, err))
		return
	}
	if len(locals) > 1 {
		result.Errors = append(result.Errors, fmt.Sprintf("collection %s: bound to %d local indexes", vectorStoreID, len(locals)))
		return
	}

	items, err := gateway.ListVectorStoreFiles(ctx, vectorStoreID, provider.ListVectorStoreFilesInput{Limit: s.listLimit})
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("collection %s: list files: %v", vectorStoreID, err))
		return
	}

	files := make([]remoteFile, 0, len(items))
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
			result.Errors = append(result.Errors, fmt.Sprintf("collection %s: unresolved provider file id for collection file %q", vectorStoreID, collectionFileID))
		}
		files = append(files, remoteFile{record: item, collectionFileID: collectionFileID, providerFileID: providerFileID})
	}

	var index *model.Index
	domain := ""
	if len(locals) == 1 {
		index = &locals[0]
		domain = index.Domain
	} else {
		domain, err = s.inferDomain(providerType, files)
		if err != nil {
			result.AmbiguousCollections = append(result.AmbiguousCollections, vectorStoreID)
			result.Errors = append(result.Errors, fmt.Sprintf("collection %s: %v", vectorStoreID, err))
			return
		}
	}

	index, err = s.upsertShadowIndex(index, providerType, domain, vectorStoreID, collection, result)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("collection %s: %v", vectorStoreID, err))
		return
	}

	processed := 0
	keep := make([]string, 0, len(files))
	for position, rf := range files {
		if rf.providerFileID == "" {
			continue
		}
		localFileID, err := s.importFile(ctx, gateway, providerType, domain, vectorStoreID, index.ID, position+1, rf, result)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %s file %s: %v", vectorStoreID, rf.providerFileID, err))
			continue
		}
		processed++
		keep = append(keep, localFileID)
	}

	// Prune associations only after a complete pass: an unresolved or failed
	// file means the local membership may still be evidence worth keeping.
	if processed == len(files) {
		pruned, err := s.indexFileRepo.DeleteNotIn(index.ID, keep)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %s: prune associations: %v", vectorStoreID, err))
			return
		}
		result.AssociationsPruned += pruned

		index.SetFileIDs(keep)
		if err := s.indexRepo.Save(index); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("collection %s: save index: %v", vectorStoreID, err))
		}
	}
}

// inferDomain derives an orphaned collection's owner from upload-cache
// evidence. Exactly one distinct domain wins; conflicting evidence is an
// error, absent evidence falls back to the configured default.
func (s *DriftService) inferDomain(providerType string, files []remoteFile) (string, error) {
	domains := make(map[string]struct{})
	for _, rf := range files {
		if rf.providerFileID == "" {
			continue
		}
		uploads, err := s.uploadRepo.ListByExternalFile(providerType, rf.providerFileID)
		if err != nil {
			return "", err
		}
		for _, upload := range uploads {
			file, err := s.fileRepo.GetByID(upload.LocalFileID)
			if err != nil {
				return "", err
			}
			if file != nil {
				domains[file.Domain] = struct{}{}
			}
		}
	}

	switch len(domains) {
	case 0:
		return s.defaultDomain, nil
	case 1:
		for domain := range domains {
			return domain, nil
		}
	}
	return "", fmt.Errorf("ambiguous domain: %d candidates", len(domains))
}

func (s *DriftService) upsertShadowIndex(index *model.Index, providerType, domain, vectorStoreID string, collection provider.Record, result *DriftResult) (*model.Index, error) {
	name := collection.StringField("name")
	description := collection.StringField("description")
	status := normalizeIndexingStatus(collection.StringField("status"))

	if index == nil {
		index = &model.Index{
			ID:             uuid.NewString(),
			Domain:         domain,
			ProviderType:   providerType,
			ExternalID:     &vectorStoreID,
			Name:           name,
			Description:    description,
			IndexingStatus: status,
		}
		if expires := collection.MapField("expires_after"); expires != nil {
			index.SetExpiresAfter(map[string]interface{}(expires))
		}
		index.SetMetadata(map[string]interface{}{"provider_payload": map[string]interface{}(collection)})
		if err := s.indexRepo.Create(index); err != nil {
			return nil, err
		}
		result.IndexesCreated++
		return index, nil
	}

	changed := false
	if name != "" && index.Name != name {
		index.Name = name
		changed = true
	}
	if description != "" && index.Description != description {
		index.Description = description
		changed = true
	}
	if status != model.IndexStatusUnknown && index.IndexingStatus != status {
		index.IndexingStatus = status
		changed = true
	}
	if index.ExpiresAfter == "" {
		if expires := collection.MapField("expires_after"); expires != nil {
			index.SetExpiresAfter(map[string]interface{}(expires))
			changed = true
		}
	}

	meta := index.MetadataValue()
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["provider_payload"] = map[string]interface{}(collection)
	index.SetMetadata(meta)

	if err := s.indexRepo.Save(index); err != nil {
		return nil, err
	}
	if changed {
		result.IndexesUpdated++
	} else {
		result.IndexesKept++
	}
	return index, nil
}

// importFile reconciles one remote file into the catalog and returns the
// local file id it now maps to. order is the file's 1-based position in the
// remote enumeration.
func (s *DriftService) importFile(ctx context.Context, gateway provider.Gateway, providerType, domain, vectorStoreID, indexID string, order int, rf remoteFile, result *DriftResult) (string, error) {
	uploads, err := s.uploadRepo.ListByExternalFile(providerType, rf.providerFileID)
	if err != nil {
		return "", err
	}
	if len(uploads) > 1 {
		return "", fmt.Errorf("upload cache holds %d rows for one remote file", len(uploads))
	}

	var upload *model.ProviderUpload
	var file *model.File
	if len(uploads) == 1 {
		upload = &uploads[0]
		file, err = s.fileRepo.GetByID(upload.LocalFileID)
		if err != nil {
			return "", err
		}
		if file != nil && file.Domain != domain {
			return "", fmt.Errorf("local file %s belongs to domain %q, collection resolved to %q", file.ID, file.Domain, domain)
		}
	}

	data, err := s.fetchRemoteBytes(ctx, gateway, vectorStoreID, rf)
	if err != nil {
		return "", err
	}
	remoteSHA := hashutil.SumBytes(data)

	if file == nil {
		fileName := provider.FileName(rf.record, rf.providerFileID)
		file = &model.File{
			ID:        uuid.NewString(),
			Domain:    domain,
			FileName:  fileName,
			FileType:  strings.TrimPrefix(filepath.Ext(fileName), "."),
			SizeBytes: int64(len(data)),
		}
		file.LocalPath = s.store.Path(domain, file.ID, fileName)
		if err := s.store.Write(file.LocalPath, data); err != nil {
			return "", fmt.Errorf("write imported file failed: %w", err)
		}
		if err := s.fileRepo.Create(file); err != nil {
			return "", err
		}
		result.FilesImported++
	} else {
		localSHA, err := hashutil.SumFile(file.LocalPath)
		if err != nil {
			return "", fmt.Errorf("hash local file failed: %w", err)
		}
		if localSHA != remoteSHA {
			result.FilesByteMismatches = append(result.FilesByteMismatches, ByteMismatch{
				LocalFileID:    file.ID,
				ProviderFileID: rf.providerFileID,
				VectorStoreID:  vectorStoreID,
				LocalSHA256:    localSHA,
				RemoteSHA256:   remoteSHA,
			})
		}
		result.FilesKept++
	}

	if upload == nil {
		upload = &model.ProviderUpload{
			ID:             uuid.NewString(),
			ProviderType:   providerType,
			LocalFileID:    file.ID,
			ExternalFileID: &rf.providerFileID,
			ContentSHA256:  remoteSHA,
			Status:         model.UploadStatusUploaded,
		}
		if at, ok := rf.record.UnixTimeField("created_at"); ok {
			upload.ExternalUploadedAt = &at
		}
		if err := s.uploadRepo.Create(upload); err != nil {
			return "", err
		}
	} else {
		// Repoint the cache row when its local file vanished and the remote
		// bytes were materialized under a fresh id.
		upload.LocalFileID = file.ID
		upload.ExternalFileID = &rf.providerFileID
		upload.ContentSHA256 = remoteSHA
		upload.Status = model.UploadStatusUploaded
		upload.LastError = ""
		if err := s.uploadRepo.Save(upload); err != nil {
			return "", err
		}
	}

	link, err := s.indexFileRepo.Get(indexID, file.ID)
	if err != nil {
		return "", err
	}
	if link == nil {
		link = &model.IndexFile{
			IndexID:      indexID,
			FileID:       file.ID,
			IncludeOrder: order,
			ExternalID:   rf.providerFileID,
		}
		if err := s.indexFileRepo.Create(link); err != nil {
			return "", err
		}
	} else if link.IncludeOrder != order || link.ExternalID != rf.providerFileID {
		link.IncludeOrder = order
		link.ExternalID = rf.providerFileID
		if err := s.indexFileRepo.Save(link); err != nil {
			return "", err
		}
	}

	return file.ID, nil
}

// fetchRemoteBytes prefers the direct file-content endpoint, then falls back
// to reassembling the collection-file chunks.
func (s *DriftService) fetchRemoteBytes(ctx context.Context, gateway provider.Gateway, vectorStoreID string, rf remoteFile) ([]byte, error) {
	data, err := gateway.RetrieveFileContent(ctx, rf.providerFileID)
	if err == nil && len(data) > 0 {
		return data, nil
	}

	collectionFileID := rf.collectionFileID
	if collectionFileID == "" {
		collectionFileID = rf.providerFileID
	}
	chunks, chunkErr := gateway.RetrieveVectorStoreFileContent(ctx, vectorStoreID, collectionFileID)
	if chunkErr != nil {
		if err != nil {
			return nil, fmt.Errorf("fetch remote content failed: %v; chunk fallback failed: %w", err, chunkErr)
		}
		return nil, fmt.Errorf("fetch remote content failed: %w", chunkErr)
	}
	if data := provider.ContentToBytes(chunks); data != nil {
		return data, nil
	}
	return []byte{}, nil
}
