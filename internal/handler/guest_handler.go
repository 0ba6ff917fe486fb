package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docshare/internal/guest"
	"github.com/xxxsen/docshare/internal/middleware"
	"github.com/xxxsen/docshare/internal/pkg/errcode"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/response"
	"github.com/xxxsen/docshare/internal/service"
)

type GuestHandler struct {
	guests *service.GuestService
}

func NewGuestHandler(guests *service.GuestService) *GuestHandler {
	return &GuestHandler{guests: guests}
}

type unlockRequest struct {
	Password string `json:"password"`
}

// Open answers with the viewer state even when the share cannot be used;
// the page renders the reason.
func (h *GuestHandler) Open(c *gin.Context) {
	view := h.guests.Open(c.Request.Context(), c.Param("token"), middleware.GuestSessionID(c), accessToken(c))
	response.Success(c, view)
}

func (h *GuestHandler) Unlock(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	view, err := h.guests.Unlock(c.Request.Context(), c.Param("token"), middleware.GuestSessionID(c), req.Password)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, view)
}

func (h *GuestHandler) Download(c *gin.Context) {
	signed, err := h.guests.Download(c.Request.Context(), c.Param("token"), middleware.GuestSessionID(c), accessToken(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"signed_url": signed})
}

// Document is the resolution endpoint remote viewers call.
func (h *GuestHandler) Document(c *gin.Context) {
	doc, err := h.guests.ResolveDocument(c.Request.Context(), c.Param("token"), accessToken(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// TrackView is best effort: only an unknown share is reported back.
func (h *GuestHandler) TrackView(c *gin.Context) {
	counted, err := h.guests.TrackView(c.Request.Context(), c.Param("id"), middleware.GuestSessionID(c))
	if errors.Is(err, appErr.ErrNotFound) {
		handleError(c, err)
		return
	}
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("track view failed",
			zap.String("share_id", c.Param("id")), zap.Error(err))
	}
	response.Success(c, gin.H{"ok": true, "counted": counted})
}

func accessToken(c *gin.Context) string {
	return c.GetHeader(guest.AccessHeader)
}
