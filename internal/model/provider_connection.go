package model

import "time"

// ProviderConnection configures one remote provider. ProviderType doubles as
// the registry key selecting the gateway implementation.
type ProviderConnection struct {
	ProviderType string `gorm:"primaryKey;size:64" json:"provider_type"`
	BaseURL      string `gorm:"size:1024" json:"base_url"`
	AuthType     string `gorm:"size:32" json:"auth_type"`

	// Credentials JSON handed to the gateway factory. Never serialized in
	// API responses.
	Credentials string `gorm:"type:text" json:"-"`

	Enabled           bool       `gorm:"default:true" json:"enabled"`
	LastHealthcheckAt *time.Time `json:"last_healthcheck_at"`
	LastError         string     `gorm:"type:text" json:"last_error"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *ProviderConnection) CredentialsValue() map[string]interface{} {
	return decodeJSONColumn(c.Credentials)
}

func (c *ProviderConnection) SetCredentials(v map[string]interface{}) {
	c.Credentials = encodeJSONColumn(v)
}
