package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragsync/internal/app"
	"ragsync/internal/model"
	"ragsync/internal/transport/http/middleware"
	"ragsync/internal/transport/http/response"
)

type IndexesHandler struct {
	indexesService    *app.IndexesService
	indexFilesService *app.IndexFilesService
	publishService    *app.PublishService
	statusService     *app.StatusService
	searchService     *app.SearchService
}

func NewIndexesHandler(
	indexesService *app.IndexesService,
	indexFilesService *app.IndexFilesService,
	publishService *app.PublishService,
	statusService *app.StatusService,
	searchService *app.SearchService,
) *IndexesHandler {
	return &IndexesHandler{
		indexesService:    indexesService,
		indexFilesService: indexFilesService,
		publishService:    publishService,
		statusService:     statusService,
		searchService:     searchService,
	}
}

type createIndexRequest struct {
	ProviderType string                 `json:"provider_type" binding:"required"`
	Name         string                 `json:"name" binding:"required,max=256"`
	Description  string                 `json:"description"`
	ExpiresAfter map[string]interface{} `json:"expires_after"`
	Metadata     map[string]interface{} `json:"metadata"`
}

func (h *IndexesHandler) Create(c *gin.Context) {
	var req createIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	index, err := h.indexesService.Create(app.CreateIndexInput{
		Domain:       middleware.DomainFrom(c),
		ProviderType: req.ProviderType,
		Name:         req.Name,
		Description:  req.Description,
		ExpiresAfter: req.ExpiresAfter,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeIndexError(c, err, "create index failed")
		return
	}
	response.OK(c, indexView(index))
}

func (h *IndexesHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	indexes, err := h.indexesService.List(middleware.DomainFrom(c), offset, limit)
	if err != nil {
		writeIndexError(c, err, "list indexes failed")
		return
	}

	views := make([]gin.H, 0, len(indexes))
	for i := range indexes {
		views = append(views, indexView(&indexes[i]))
	}
	response.OK(c, gin.H{"indexes": views})
}

func (h *IndexesHandler) Get(c *gin.Context) {
	index, err := h.indexesService.Get(middleware.DomainFrom(c), c.Param("id"))
	if err != nil {
		writeIndexError(c, err, "get index failed")
		return
	}
	response.OK(c, indexView(index))
}

type updateIndexRequest struct {
	Name         *string                `json:"name"`
	Description  *string                `json:"description"`
	ExpiresAfter map[string]interface{} `json:"expires_after"`
	Metadata     map[string]interface{} `json:"metadata"`
}

func (h *IndexesHandler) Update(c *gin.Context) {
	var req updateIndexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	index, err := h.indexesService.Update(middleware.DomainFrom(c), c.Param("id"), app.UpdateIndexInput{
		Name:         req.Name,
		Description:  req.Description,
		ExpiresAfter: req.ExpiresAfter,
		Metadata:     req.Metadata,
	})
	if err != nil {
		writeIndexError(c, err, "update index failed")
		return
	}
	response.OK(c, indexView(index))
}

func (h *IndexesHandler) Delete(c *gin.Context) {
	if err := h.indexesService.Delete(middleware.DomainFrom(c), c.Param("id")); err != nil {
		writeIndexError(c, err, "delete index failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

type attachFileRequest struct {
	FileID           string                 `json:"file_id" binding:"required"`
	ChunkingStrategy map[string]interface{} `json:"chunking_strategy"`
}

func (h *IndexesHandler) AttachFile(c *gin.Context) {
	var req attachFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	link, err := h.indexFilesService.Attach(middleware.DomainFrom(c), c.Param("id"), req.FileID, req.ChunkingStrategy)
	if err != nil {
		writeIndexError(c, err, "attach file failed")
		return
	}
	response.OK(c, gin.H{
		"index_id":      link.IndexID,
		"file_id":       link.FileID,
		"include_order": link.IncludeOrder,
	})
}

func (h *IndexesHandler) DetachFile(c *gin.Context) {
	deleted, err := h.indexFilesService.Detach(middleware.DomainFrom(c), c.Param("id"), c.Param("file_id"))
	if err != nil {
		writeIndexError(c, err, "detach file failed")
		return
	}
	response.OK(c, gin.H{"deleted": deleted})
}

func (h *IndexesHandler) ListFiles(c *gin.Context) {
	rows, err := h.indexFilesService.ListRows(middleware.DomainFrom(c), c.Param("id"))
	if err != nil {
		writeIndexError(c, err, "list index files failed")
		return
	}

	views := make([]gin.H, 0, len(rows))
	for i := range rows {
		views = append(views, gin.H{
			"file":              fileView(&rows[i].File),
			"include_order":     rows[i].Link.IncludeOrder,
			"external_id":       rows[i].Link.ExternalID,
			"chunking_strategy": rows[i].Link.ChunkingOverride(),
		})
	}
	response.OK(c, gin.H{"files": views})
}

type publishRequest struct {
	ForceUpload bool `json:"force_upload"`
	DetachExtra bool `json:"detach_extra"`
	DryRun      bool `json:"dry_run"`
}

func (h *IndexesHandler) Publish(c *gin.Context) {
	var req publishRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	result, err := h.publishService.Publish(c.Request.Context(), middleware.DomainFrom(c), app.PublishInput{
		IndexID:     c.Param("id"),
		ForceUpload: req.ForceUpload,
		DetachExtra: req.DetachExtra,
		DryRun:      req.DryRun,
	})
	if err != nil {
		writeIndexError(c, err, "publish failed")
		return
	}
	response.OK(c, result)
}

// Reindex is a forced publish: every upload is re-verified against current
// bytes and extra remote files are detached.
func (h *IndexesHandler) Reindex(c *gin.Context) {
	result, err := h.publishService.Publish(c.Request.Context(), middleware.DomainFrom(c), app.PublishInput{
		IndexID:     c.Param("id"),
		ForceUpload: true,
		DetachExtra: true,
	})
	if err != nil {
		writeIndexError(c, err, "reindex failed")
		return
	}
	response.OK(c, result)
}

func (h *IndexesHandler) SyncStatus(c *gin.Context) {
	force := c.Query("force") == "true"
	result, err := h.statusService.SyncIndex(c.Request.Context(), middleware.DomainFrom(c), c.Param("id"), force)
	if err != nil {
		writeIndexError(c, err, "status sync failed")
		return
	}
	response.OK(c, result)
}

type searchRequest struct {
	Query          string                 `json:"query" binding:"required"`
	Filters        map[string]interface{} `json:"filters"`
	MaxNumResults  int                    `json:"max_num_results"`
	RankingOptions map[string]interface{} `json:"ranking_options"`
	RewriteQuery   *bool                  `json:"rewrite_query"`
}

func (h *IndexesHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	records, err := h.searchService.Search(c.Request.Context(), middleware.DomainFrom(c), c.Param("id"), app.SearchInput{
		Query:          req.Query,
		Filters:        req.Filters,
		MaxNumResults:  req.MaxNumResults,
		RankingOptions: req.RankingOptions,
		RewriteQuery:   req.RewriteQuery,
	})
	if err != nil {
		writeIndexError(c, err, "search failed")
		return
	}
	response.OK(c, gin.H{"results": records})
}

// ListProviderFiles exposes the raw remote file records for debugging drift.
func (h *IndexesHandler) ListProviderFiles(c *gin.Context) {
	records, err := h.searchService.ListProviderFiles(c.Request.Context(), middleware.DomainFrom(c), c.Param("id"))
	if err != nil {
		writeIndexError(c, err, "list provider files failed")
		return
	}
	response.OK(c, gin.H{"files": records})
}

func indexView(index *model.Index) gin.H {
	return gin.H{
		"id":              index.ID,
		"domain":          index.Domain,
		"provider_type":   index.ProviderType,
		"external_id":     index.ExternalID,
		"name":            index.Name,
		"description":     index.Description,
		"expires_after":   index.ExpiresAfterValue(),
		"metadata":        index.MetadataValue(),
		"file_ids":        index.FileIDsValue(),
		"indexing_status": index.IndexingStatus,
		"indexed_at":      index.IndexedAt,
		"created_at":      index.CreatedAt,
		"updated_at":      index.UpdatedAt,
	}
}

func writeIndexError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrIndexNotFound):
		response.Error(c, http.StatusNotFound, response.CodeIndexNotFound, err.Error())
	case errors.Is(err, app.ErrFileNotFound):
		response.Error(c, http.StatusNotFound, response.CodeFileNotFound, err.Error())
	case errors.Is(err, app.ErrAlreadyAttached):
		response.Error(c, http.StatusConflict, response.CodeAlreadyAttached, err.Error())
	case errors.Is(err, app.ErrIndexNotPublished):
		response.Error(c, http.StatusConflict, response.CodeIndexNotPublished, err.Error())
	case errors.Is(err, app.ErrConnectionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeConnectionNotFound, err.Error())
	case errors.Is(err, app.ErrConnectionDisabled), errors.Is(err, app.ErrMissingCredentials):
		response.Error(c, http.StatusConflict, response.CodeConnectionDisabled, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
