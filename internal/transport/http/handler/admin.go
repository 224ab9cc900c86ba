package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragsync/internal/app"
	"ragsync/internal/model"
	"ragsync/internal/transport/http/response"
)

type AdminHandler struct {
	authService        *app.AuthService
	connectionsService *app.ConnectionsService
	uploadsService     *app.UploadsService
	driftService       *app.DriftService
}

func NewAdminHandler(
	authService *app.AuthService,
	connectionsService *app.ConnectionsService,
	uploadsService *app.UploadsService,
	driftService *app.DriftService,
) *AdminHandler {
	return &AdminHandler{
		authService:        authService,
		connectionsService: connectionsService,
		uploadsService:     uploadsService,
		driftService:       driftService,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	token, err := h.authService.Login(app.LoginInput{Username: req.Username, Password: req.Password})
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredential) {
			response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
			return
		}
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "login failed")
		return
	}
	response.OK(c, gin.H{"token": token})
}

func (h *AdminHandler) ListConnections(c *gin.Context) {
	connections, err := h.connectionsService.List()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list connections failed")
		return
	}
	views := make([]gin.H, 0, len(connections))
	for i := range connections {
		views = append(views, connectionView(&connections[i]))
	}
	response.OK(c, gin.H{"connections": views})
}

func (h *AdminHandler) GetConnection(c *gin.Context) {
	conn, err := h.connectionsService.Get(c.Param("type"))
	if err != nil {
		writeConnectionError(c, err, "get connection failed")
		return
	}
	response.OK(c, connectionView(conn))
}

type upsertConnectionRequest struct {
	BaseURL     string                 `json:"base_url"`
	AuthType    string                 `json:"auth_type"`
	Credentials map[string]interface{} `json:"credentials"`
	Enabled     bool                   `json:"enabled"`
}

func (h *AdminHandler) UpsertConnection(c *gin.Context) {
	var req upsertConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	conn, err := h.connectionsService.Upsert(c.Param("type"), app.UpsertConnectionInput{
		BaseURL:     req.BaseURL,
		AuthType:    req.AuthType,
		Credentials: req.Credentials,
		Enabled:     req.Enabled,
	})
	if err != nil {
		writeConnectionError(c, err, "save connection failed")
		return
	}
	response.OK(c, connectionView(conn))
}

type patchConnectionRequest struct {
	BaseURL     *string                `json:"base_url"`
	AuthType    *string                `json:"auth_type"`
	Credentials map[string]interface{} `json:"credentials"`
	Enabled     *bool                  `json:"enabled"`
}

func (h *AdminHandler) PatchConnection(c *gin.Context) {
	var req patchConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	conn, err := h.connectionsService.Patch(c.Param("type"), app.PatchConnectionInput{
		BaseURL:     req.BaseURL,
		AuthType:    req.AuthType,
		Credentials: req.Credentials,
		Enabled:     req.Enabled,
	})
	if err != nil {
		writeConnectionError(c, err, "patch connection failed")
		return
	}
	response.OK(c, connectionView(conn))
}

func (h *AdminHandler) DeleteConnection(c *gin.Context) {
	deleted, err := h.connectionsService.Delete(c.Param("type"))
	if err != nil {
		writeConnectionError(c, err, "delete connection failed")
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

func (h *AdminHandler) HealthcheckConnection(c *gin.Context) {
	if err := h.connectionsService.Healthcheck(c.Request.Context(), c.Param("type")); err != nil {
		writeConnectionError(c, err, "healthcheck failed")
		return
	}
	response.OK(c, gin.H{"healthy": true})
}

// ListVectorStores is a raw passthrough over the provider's collection
// enumeration, for inspecting remote state before a drift sync.
func (h *AdminHandler) ListVectorStores(c *gin.Context) {
	gateway, err := h.connectionsService.Gateway(c.Param("type"))
	if err != nil {
		writeConnectionError(c, err, "resolve gateway failed")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	records, err := gateway.ListVectorStores(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusBadGateway, response.CodeProviderUnavailable, "list vector stores failed")
		return
	}
	response.OK(c, gin.H{"vector_stores": records})
}

func (h *AdminHandler) DeleteVectorStore(c *gin.Context) {
	gateway, err := h.connectionsService.Gateway(c.Param("type"))
	if err != nil {
		writeConnectionError(c, err, "resolve gateway failed")
		return
	}

	if err := gateway.DeleteVectorStore(c.Request.Context(), c.Param("vs_id")); err != nil {
		response.Error(c, http.StatusBadGateway, response.CodeProviderUnavailable, "delete vector store failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func (h *AdminHandler) ListUploads(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	uploads, err := h.uploadsService.List(c.Param("type"), offset, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list uploads failed")
		return
	}
	response.OK(c, gin.H{"uploads": uploads})
}

func (h *AdminHandler) GetUpload(c *gin.Context) {
	upload, err := h.uploadsService.Get(c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get upload failed")
		return
	}
	if upload == nil {
		response.Error(c, http.StatusNotFound, response.CodeFileNotFound, "upload not found")
		return
	}
	response.OK(c, upload)
}

type patchUploadRequest struct {
	Status    *string `json:"status"`
	LastError *string `json:"last_error"`
}

func (h *AdminHandler) PatchUpload(c *gin.Context) {
	var req patchUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	upload, err := h.uploadsService.Patch(c.Param("type"), c.Param("id"), req.Status, req.LastError)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "patch upload failed")
		return
	}
	if upload == nil {
		response.Error(c, http.StatusNotFound, response.CodeFileNotFound, "upload not found")
		return
	}
	response.OK(c, upload)
}

func (h *AdminHandler) DeleteUpload(c *gin.Context) {
	deleted, err := h.uploadsService.Delete(c.Param("type"), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete upload failed")
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

// DriftSync runs the full bidirectional sweep for one provider. It spans
// every domain, which is why it lives on the admin surface.
func (h *AdminHandler) DriftSync(c *gin.Context) {
	result, err := h.driftService.Sync(c.Request.Context(), c.Param("type"))
	if err != nil {
		writeConnectionError(c, err, "drift sync failed")
		return
	}
	response.OK(c, result)
}

func connectionView(conn *model.ProviderConnection) gin.H {
	return gin.H{
		"provider_type":       conn.ProviderType,
		"base_url":            conn.BaseURL,
		"auth_type":           conn.AuthType,
		"enabled":             conn.Enabled,
		"last_healthcheck_at": conn.LastHealthcheckAt,
		"last_error":          conn.LastError,
		"created_at":          conn.CreatedAt,
		"updated_at":          conn.UpdatedAt,
	}
}

func writeConnectionError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrConnectionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConnectionNotFound, err.Error())
	case errors.Is(err, app.ErrConnectionDisabled), errors.Is(err, app.ErrMissingCredentials):
		response.Error(c, http.StatusConflict, response.CodeConnectionDisabled, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
