package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docshare/internal/pkg/errcode"
	"github.com/xxxsen/docshare/internal/pkg/response"
	"github.com/xxxsen/docshare/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
	summaries *service.SummaryService
	maxUpload int64
}

func NewDocumentHandler(documents *service.DocumentService, summaries *service.SummaryService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, summaries: summaries, maxUpload: maxUpload}
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, errcode.ErrInvalidFile, "file exceeds "+formatUploadLimit(h.maxUpload))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	doc, err := h.documents.Upload(c.Request.Context(), getUserID(c), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit := parseUint(c.Query("limit"))
	offset := parseUint(c.Query("offset"))
	docs, err := h.documents.List(c.Request.Context(), getUserID(c), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *DocumentHandler) Summary(c *gin.Context) {
	summary, err := h.summaries.Summarize(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, summary)
}

func parseUint(value string) uint {
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0
	}
	return uint(parsed)
}
