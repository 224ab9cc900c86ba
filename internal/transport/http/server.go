package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "ragsync/internal/app"
	"ragsync/internal/bootstrap"
	"ragsync/internal/pkg/filestore"
	"ragsync/internal/platform/rabbitmq"
	"ragsync/internal/repository"
	"ragsync/internal/transport/http/handler"
	"ragsync/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	fileRepo := repository.NewFileRepository(app.MySQL)
	indexRepo := repository.NewIndexRepository(app.MySQL)
	indexFileRepo := repository.NewIndexFileRepository(app.MySQL)
	uploadRepo := repository.NewProviderUploadRepository(app.MySQL)
	connRepo := repository.NewProviderConnectionRepository(app.MySQL)
	reportRepo := repository.NewSyncReportRepository(app.MySQL)

	store := filestore.New(app.Config.Storage.FilesRoot)
	reports := rabbitmq.NewReportPublisher(app.MQConn, app.Config.RabbitMQ.ReportPersistQueue)

	authService := appsvc.NewAuthService(
		app.Config.Auth.AdminUsername,
		app.Config.Auth.AdminPasswordHash,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	filesService := appsvc.NewFilesService(fileRepo, store)
	indexesService := appsvc.NewIndexesService(indexRepo)
	indexFilesService := appsvc.NewIndexFilesService(indexRepo, fileRepo, indexFileRepo)
	connectionsService := appsvc.NewConnectionsService(connRepo, app.Registry)
	uploadsService := appsvc.NewUploadsService(fileRepo, uploadRepo, connectionsService)
	publishService := appsvc.NewPublishService(
		indexRepo, fileRepo, indexFileRepo, uploadsService, connectionsService,
		reports, app.Logger, app.Config.Sync.ListLimit,
	)
	statusService := appsvc.NewStatusService(indexRepo, connectionsService, reports, app.Logger, app.Config.Sync.ListLimit)
	driftService := appsvc.NewDriftService(
		indexRepo, fileRepo, indexFileRepo, uploadRepo, store, connectionsService,
		reports, app.Logger, app.Config.Sync.DefaultDomain, app.Config.Sync.ListLimit,
	)
	searchService := appsvc.NewSearchService(indexRepo, connectionsService, app.Config.Sync.ListLimit)

	filesHandler := handler.NewFilesHandler(filesService)
	indexesHandler := handler.NewIndexesHandler(indexesService, indexFilesService, publishService, statusService, searchService)
	syncHandler := handler.NewSyncHandler(statusService, reportRepo, app.ReportCache)
	providersHandler := handler.NewProvidersHandler(connectionsService, app.Registry)
	adminHandler := handler.NewAdminHandler(authService, connectionsService, uploadsService, driftService)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Domain(app.Config.Sync.DefaultDomain))

	filesGroup := v1.Group("/files")
	filesGroup.POST("", filesHandler.Create)
	filesGroup.GET("", filesHandler.List)
	filesGroup.GET("/:id", filesHandler.Get)
	filesGroup.GET("/:id/download", filesHandler.Download)
	filesGroup.PATCH("/:id", filesHandler.Update)
	filesGroup.DELETE("/:id", filesHandler.Delete)

	indexesGroup := v1.Group("/indexes")
	indexesGroup.POST("", indexesHandler.Create)
	indexesGroup.GET("", indexesHandler.List)
	indexesGroup.GET("/:id", indexesHandler.Get)
	indexesGroup.PATCH("/:id", indexesHandler.Update)
	indexesGroup.DELETE("/:id", indexesHandler.Delete)
	indexesGroup.POST("/:id/files", indexesHandler.AttachFile)
	indexesGroup.DELETE("/:id/files/:file_id", indexesHandler.DetachFile)
	indexesGroup.GET("/:id/files", indexesHandler.ListFiles)
	indexesGroup.GET("/:id/provider-files", indexesHandler.ListProviderFiles)
	indexesGroup.POST("/:id/publish", indexesHandler.Publish)
	indexesGroup.POST("/:id/reindex", indexesHandler.Reindex)
	indexesGroup.POST("/:id/sync-status", indexesHandler.SyncStatus)
	indexesGroup.POST("/:id/search", indexesHandler.Search)

	v1.POST("/sync/statuses", syncHandler.SyncStatuses)
	v1.GET("/sync/reports", syncHandler.ListReports)
	v1.GET("/sync/reports/last", syncHandler.LastReport)
	v1.GET("/providers", providersHandler.List)

	admin := v1.Group("/admin")
	admin.POST("/login", adminHandler.Login)

	adminAuthed := admin.Group("")
	adminAuthed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	adminAuthed.GET("/connections", adminHandler.ListConnections)
	adminAuthed.GET("/connections/:type", adminHandler.GetConnection)
	adminAuthed.PUT("/connections/:type", adminHandler.UpsertConnection)
	adminAuthed.PATCH("/connections/:type", adminHandler.PatchConnection)
	adminAuthed.DELETE("/connections/:type", adminHandler.DeleteConnection)
	adminAuthed.POST("/connections/:type/healthcheck", adminHandler.HealthcheckConnection)
	adminAuthed.GET("/connections/:type/vector-stores", adminHandler.ListVectorStores)
	adminAuthed.DELETE("/connections/:type/vector-stores/:vs_id", adminHandler.DeleteVectorStore)
	adminAuthed.GET("/connections/:type/uploads", adminHandler.ListUploads)
	adminAuthed.GET("/connections/:type/uploads/:id", adminHandler.GetUpload)
	adminAuthed.PATCH("/connections/:type/uploads/:id", adminHandler.PatchUpload)
	adminAuthed.DELETE("/connections/:type/uploads/:id", adminHandler.DeleteUpload)
	adminAuthed.POST("/connections/:type/sync", adminHandler.DriftSync)

	return router
}
