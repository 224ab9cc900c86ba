package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragsync/internal/app"
	"ragsync/internal/cache"
	"ragsync/internal/repository"
	"ragsync/internal/transport/http/middleware"
	"ragsync/internal/transport/http/response"
)

type SyncHandler struct {
	statusService *app.StatusService
	reportRepo    *repository.SyncReportRepository
	reportCache   *cache.ReportCache
}

func NewSyncHandler(statusService *app.StatusService, reportRepo *repository.SyncReportRepository, reportCache *cache.ReportCache) *SyncHandler {
	return &SyncHandler{
		statusService: statusService,
		reportRepo:    reportRepo,
		reportCache:   reportCache,
	}
}

// SyncStatuses refreshes indexing status for every index in the caller's
// domain.
func (h *SyncHandler) SyncStatuses(c *gin.Context) {
	force := c.Query("force") == "true"
	result, err := h.statusService.SyncDomainIndexes(c.Request.Context(), middleware.DomainFrom(c), force)
	if err != nil {
		writeIndexError(c, err, "domain status sync failed")
		return
	}
	response.OK(c, result)
}

func (h *SyncHandler) ListReports(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	reports, err := h.reportRepo.ListByDomain(middleware.DomainFrom(c), offset, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list reports failed")
		return
	}

	views := make([]gin.H, 0, len(reports))
	for i := range reports {
		r := &reports[i]
		views = append(views, gin.H{
			"id":            r.ID,
			"domain":        r.Domain,
			"provider_type": r.ProviderType,
			"kind":          r.Kind,
			"index_id":      r.IndexID,
			"report":        r.ReportValue(),
			"error_count":   r.ErrorCount,
			"created_at":    r.CreatedAt,
		})
	}
	response.OK(c, gin.H{"reports": views})
}

// LastReport serves the most recent report for a (provider_type, kind) pair
// out of the cache.
func (h *SyncHandler) LastReport(c *gin.Context) {
	providerType := c.Query("provider_type")
	kind := c.Query("kind")
	if providerType == "" || kind == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "provider_type and kind are required")
		return
	}

	domain := middleware.DomainFrom(c)
	report, found, err := h.reportCache.GetLast(c.Request.Context(), domain, providerType, kind)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get last report failed")
		return
	}
	if !found {
		response.OK(c, gin.H{"report": nil})
		return
	}
	response.OK(c, gin.H{
		"report": gin.H{
			"id":            report.ID,
			"domain":        report.Domain,
			"provider_type": report.ProviderType,
			"kind":          report.Kind,
			"index_id":      report.IndexID,
			"report":        report.ReportValue(),
			"error_count":   report.ErrorCount,
			"created_at":    report.CreatedAt,
		},
	})
}
