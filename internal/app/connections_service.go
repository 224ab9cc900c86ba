package app

import (
	"context"
	"time"

	"ragsync/internal/model"
	"ragsync/internal/provider"
	"ragsync/internal/repository"
)

// GatewayResolver resolves a provider type to a ready-to-use gateway. The
// reconcilers depend on this instead of the concrete connections service so
// tests can substitute a mock.
type GatewayResolver interface {
	Gateway(providerType string) (provider.Gateway, error)
}

type ConnectionsService struct {
	connRepo *repository.ProviderConnectionRepository
	registry *provider.Registry
}

func NewConnectionsService(connRepo *repository.ProviderConnectionRepository, registry *provider.Registry) *ConnectionsService {
	return &ConnectionsService{connRepo: connRepo, registry: registry}
}

func (s *ConnectionsService) List() ([]model.ProviderConnection, error) {
	return s.connRepo.List()
}

func (s *ConnectionsService) Get(providerType string) (*model.ProviderConnection, error) {
	if providerType == "" {
		return nil, ErrInvalidInput
	}
	conn, err := s.connRepo.Get(providerType)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		return nil, ErrConnectionNotFound
	}
	return conn, nil
}

type UpsertConnectionInput struct {
	BaseURL     string
	AuthType    string
	Credentials map[string]interface{}
	Enabled     bool
}

func (s *ConnectionsService) Upsert(providerType string, input UpsertConnectionInput) (*model.ProviderConnection, error) {
	if providerType == "" {
		return nil, ErrInvalidInput
	}
	conn, err := s.connRepo.Get(providerType)
	if err != nil {
		return nil, err
	}
	if conn == nil {
		conn = &model.ProviderConnection{ProviderType: providerType}
	}

	conn.BaseURL = input.BaseURL
	conn.AuthType = input.AuthType
	conn.Enabled = input.Enabled
	conn.LastError = ""
	if input.Credentials != nil {
		conn.SetCredentials(input.Credentials)
	}

	if err := s.connRepo.Save(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

type PatchConnectionInput struct {
	BaseURL     *string
	AuthType    *string
	Credentials map[string]interface{}
	Enabled     *bool
}

func (s *ConnectionsService) Patch(providerType string, input PatchConnectionInput) (*model.ProviderConnection, error) {
	conn, err := s.Get(providerType)
	if err != nil {
		return nil, err
	}

	if input.BaseURL != nil {
		conn.BaseURL = *input.BaseURL
	}
	if input.AuthType != nil {
		conn.AuthType = *input.AuthType
	}
	if input.Enabled != nil {
		conn.Enabled = *input.Enabled
	}
	if input.Credentials != nil {
		conn.SetCredentials(input.Credentials)
	}

	if err := s.connRepo.Save(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

func (s *ConnectionsService) Delete(providerType string) (bool, error) {
	if providerType == "" {
		return false, ErrInvalidInput
	}
	return s.connRepo.Delete(providerType)
}

// Gateway builds the provider gateway for an enabled, credentialed
// connection.
func (s *ConnectionsService) Gateway(providerType string) (provider.Gateway, error) {
	conn, err := s.Get(providerType)
	if err != nil {
		return nil, err
	}
	if !conn.Enabled {
		return nil, ErrConnectionDisabled
	}
	credentials := conn.CredentialsValue()
	if len(credentials) == 0 {
		return nil, ErrMissingCredentials
	}
	return s.registry.Build(providerType, conn.BaseURL, credentials)
}

// Healthcheck probes the provider and records the outcome on the connection.
func (s *ConnectionsService) Healthcheck(ctx context.Context, providerType string) error {
	conn, err := s.Get(providerType)
	if err != nil {
		return err
	}

	gateway, err := s.Gateway(providerType)
	if err != nil {
		return err
	}

	checkErr := gateway.Healthcheck(ctx)

	now := time.Now().UTC()
	conn.LastHealthcheckAt = &now
	if checkErr != nil {
		conn.LastError = checkErr.Error()
	} else {
		conn.LastError = ""
	}
	if saveErr := s.connRepo.Save(conn); saveErr != nil {
		return saveErr
	}
	return checkErr
}
