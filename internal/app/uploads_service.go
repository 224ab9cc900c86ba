package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ragsync/internal/model"
	"ragsync/internal/pkg/hashutil"
	"ragsync/internal/repository"
)

// UploadsService is the single idempotence boundary for remote file uploads:
// every component that needs a file on the provider goes through GetOrSync
// instead of calling the gateway directly.
type UploadsService struct {
	fileRepo   *repository.FileRepository
	uploadRepo *repository.ProviderUploadRepository
	gateways   GatewayResolver
}

func NewUploadsService(
	fileRepo *repository.FileRepository,
	uploadRepo *repository.ProviderUploadRepository,
	gateways GatewayResolver,
) *UploadsService {
	return &UploadsService{
		fileRepo:   fileRepo,
		uploadRepo: uploadRepo,
		gateways:   gateways,
	}
}

// GetOrSync returns a valid uploaded cache entry for (providerType,
// localFileID), uploading the file's bytes when the cache cannot vouch for
// them. A cache hit requires an unforced call, status=uploaded, a non-empty
// external id, and a stored digest equal to the file's current digest —
// staleness is detected by re-hashing, never by timestamps.
func (s *UploadsService) GetOrSync(ctx context.Context, providerType, localFileID string, force bool, meta map[string]string) (*model.ProviderUpload, error) {
	file, err := s.fileRepo.GetByID(localFileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}

	sha, err := hashutil.SumFile(file.LocalPath)
	if err != nil {
		return nil, ErrFileMissingOnDisk
	}

	upload, err := s.uploadRepo.GetByLocalFile(providerType, localFileID)
	if err != nil {
		return nil, err
	}

	if upload != nil && !force &&
		upload.Status == model.UploadStatusUploaded &&
		upload.ExternalFileIDValue() != "" &&
		upload.ContentSHA256 == sha {
		return upload, nil
	}

	if upload == nil {
		upload = &model.ProviderUpload{
			ID:            uuid.NewString(),
			ProviderType:  providerType,
			LocalFileID:   localFileID,
			Status:        model.UploadStatusPending,
			ContentSHA256: sha,
		}
		if err := s.uploadRepo.Create(upload); err != nil {
			return nil, err
		}
	} else {
		upload.Status = model.UploadStatusPending
		upload.ContentSHA256 = sha
		upload.LastError = ""
		if err := s.uploadRepo.Save(upload); err != nil {
			return nil, err
		}
	}

	gateway, err := s.gateways.Gateway(providerType)
	if err != nil {
		return nil, err
	}

	created, err := gateway.CreateFile(ctx, file.LocalPath, meta)
	if err != nil {
		upload.Status = model.UploadStatusFailed
		upload.LastError = err.Error()
		_ = s.uploadRepo.Save(upload)
		return nil, err
	}

	externalID := created.StringField("id")
	if externalID == "" {
		externalID = created.StringField("file_id")
	}
	if externalID == "" {
		upload.Status = model.UploadStatusFailed
		upload.LastError = ErrNoRemoteID.Error()
		_ = s.uploadRepo.Save(upload)
		return nil, ErrNoRemoteID
	}

	now := time.Now().UTC()
	upload.ExternalFileID = &externalID
	upload.ExternalUploadedAt = &now
	upload.SetRawPayload(created)
	upload.Status = model.UploadStatusUploaded
	upload.LastError = ""
	if err := s.uploadRepo.Save(upload); err != nil {
		return nil, err
	}
	return upload, nil
}

// Peek reports what GetOrSync would do without mutating anything or touching
// the network: the returned entry is non-nil only on a genuine cache hit.
func (s *UploadsService) Peek(providerType, localFileID string, force bool) (*model.ProviderUpload, error) {
	file, err := s.fileRepo.GetByID(localFileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrFileNotFound
	}

	sha, err := hashutil.SumFile(file.LocalPath)
	if err != nil {
		return nil, ErrFileMissingOnDisk
	}

	upload, err := s.uploadRepo.GetByLocalFile(providerType, localFileID)
	if err != nil {
		return nil, err
	}
	if upload != nil && !force &&
		upload.Status == model.UploadStatusUploaded &&
		upload.ExternalFileIDValue() != "" &&
		upload.ContentSHA256 == sha {
		return upload, nil
	}
	return nil, nil
}

// List and Get expose the cache for the admin API.

func (s *UploadsService) List(providerType string, offset, limit int) ([]model.ProviderUpload, error) {
	return s.uploadRepo.List(providerType, offset, limit)
}

func (s *UploadsService) Get(providerType, uploadID string) (*model.ProviderUpload, error) {
	return s.uploadRepo.GetByID(providerType, uploadID)
}

func (s *UploadsService) Delete(providerType, uploadID string) (bool, error) {
	return s.uploadRepo.Delete(providerType, uploadID)
}

// Patch lets an operator overwrite status or clear an error after manual
// intervention.
func (s *UploadsService) Patch(providerType, uploadID string, status, lastError *string) (*model.ProviderUpload, error) {
	upload, err := s.uploadRepo.GetByID(providerType, uploadID)
	if err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, nil
	}
	if status != nil {
		upload.Status = *status
	}
	if lastError != nil {
		upload.LastError = *lastError
	}
	if err := s.uploadRepo.Save(upload); err != nil {
		return nil, err
	}
	return upload, nil
}
