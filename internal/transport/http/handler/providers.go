package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"ragsync/internal/app"
	"ragsync/internal/provider"
	"ragsync/internal/transport/http/response"
)

// ProvidersHandler is the public, read-only view of configured providers.
// Credentials never appear here.
type ProvidersHandler struct {
	connectionsService *app.ConnectionsService
	registry           *provider.Registry
}

func NewProvidersHandler(connectionsService *app.ConnectionsService, registry *provider.Registry) *ProvidersHandler {
	return &ProvidersHandler{connectionsService: connectionsService, registry: registry}
}

func (h *ProvidersHandler) List(c *gin.Context) {
	types := h.registry.Types()
	sort.Strings(types)

	connections, err := h.connectionsService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list providers failed")
		return
	}

	configured := make([]gin.H, 0, len(connections))
	for i := range connections {
		conn := &connections[i]
		configured = append(configured, gin.H{
			"provider_type":       conn.ProviderType,
			"base_url":            conn.BaseURL,
			"enabled":             conn.Enabled,
			"last_healthcheck_at": conn.LastHealthcheckAt,
			"last_error":          conn.LastError,
		})
	}

	response.OK(c, gin.H{
		"supported_types": types,
		"connections":     configured,
	})
}
