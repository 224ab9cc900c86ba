package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ragsync/internal/app"
	"ragsync/internal/model"
	"ragsync/internal/transport/http/middleware"
	"ragsync/internal/transport/http/response"
)

type FilesHandler struct {
	filesService *app.FilesService
}

func NewFilesHandler(filesService *app.FilesService) *FilesHandler {
	return &FilesHandler{filesService: filesService}
}

// Create accepts a multipart upload: the byte stream under "file", plus
// optional JSON-encoded "tags" and "chunking_strategy" form fields.
func (h *FilesHandler) Create(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}

	tags, ok := decodeJSONForm(c, "tags")
	if !ok {
		return
	}
	chunking, ok := decodeJSONForm(c, "chunking_strategy")
	if !ok {
		return
	}

	src, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable file field")
		return
	}
	defer src.Close()

	file, err := h.filesService.Create(app.CreateFileInput{
		Domain:   middleware.DomainFrom(c),
		FileName: header.Filename,
		FileType: header.Header.Get("Content-Type"),
		Content:  src,
		Tags:     tags,
		Notes:    c.PostForm("notes"),
		Chunking: chunking,
	})
	if err != nil {
		writeFileError(c, err, "create file failed")
		return
	}
	response.OK(c, fileView(file))
}

func (h *FilesHandler) List(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	files, err := h.filesService.List(middleware.DomainFrom(c), offset, limit)
	if err != nil {
		writeFileError(c, err, "list files failed")
		return
	}

	views := make([]gin.H, 0, len(files))
	for i := range files {
		views = append(views, fileView(&files[i]))
	}
	response.OK(c, gin.H{"files": views})
}

func (h *FilesHandler) Get(c *gin.Context) {
	file, err := h.filesService.Get(middleware.DomainFrom(c), c.Param("id"))
	if err != nil {
		writeFileError(c, err, "get file failed")
		return
	}
	response.OK(c, fileView(file))
}

func (h *FilesHandler) Download(c *gin.Context) {
	file, err := h.filesService.Get(middleware.DomainFrom(c), c.Param("id"))
	if err != nil {
		writeFileError(c, err, "get file failed")
		return
	}
	c.FileAttachment(file.LocalPath, file.FileName)
}

type updateFileRequest struct {
	FileName         *string                `json:"file_name"`
	Tags             map[string]interface{} `json:"tags"`
	Notes            *string                `json:"notes"`
	ChunkingStrategy map[string]interface{} `json:"chunking_strategy"`
}

func (h *FilesHandler) Update(c *gin.Context) {
	var req updateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	file, err := h.filesService.Update(middleware.DomainFrom(c), c.Param("id"), app.UpdateFileInput{
		FileName: req.FileName,
		Tags:     req.Tags,
		Notes:    req.Notes,
		Chunking: req.ChunkingStrategy,
	})
	if err != nil {
		writeFileError(c, err, "update file failed")
		return
	}
	response.OK(c, fileView(file))
}

func (h *FilesHandler) Delete(c *gin.Context) {
	if err := h.filesService.Delete(middleware.DomainFrom(c), c.Param("id")); err != nil {
		writeFileError(c, err, "delete file failed")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

func fileView(file *model.File) gin.H {
	return gin.H{
		"id":                file.ID,
		"domain":            file.Domain,
		"file_name":         file.FileName,
		"file_type":         file.FileType,
		"size_bytes":        file.SizeBytes,
		"tags":              file.TagsValue(),
		"notes":             file.Notes,
		"chunking_strategy": file.ChunkingStrategy(),
		"created_at":        file.CreatedAt,
		"updated_at":        file.UpdatedAt,
	}
}

func decodeJSONForm(c *gin.Context, field string) (map[string]interface{}, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return nil, true
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid "+field+" field")
		return nil, false
	}
	return out, true
}

func writeFileError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrFileNotFound):
		response.Error(c, http.StatusNotFound, response.CodeFileNotFound, err.Error())
	case errors.Is(err, app.ErrFileMissingOnDisk):
		response.Error(c, http.StatusConflict, response.CodeFileNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
