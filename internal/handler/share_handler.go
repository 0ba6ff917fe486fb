package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docshare/internal/model"
	"github.com/xxxsen/docshare/internal/pkg/errcode"
	"github.com/xxxsen/docshare/internal/pkg/response"
	"github.com/xxxsen/docshare/internal/service"
)

type ShareHandler struct {
	shares *service.ShareService
}

func NewShareHandler(shares *service.ShareService) *ShareHandler {
	return &ShareHandler{shares: shares}
}

// ownerShare is the owner's view of a share. The password hash never leaves the server.
type ownerShare struct {
	model.Share
	HasPassword bool `json:"has_password"`
}

func toOwnerShare(share *model.Share) ownerShare {
	out := ownerShare{Share: *share, HasPassword: share.HasPassword()}
	out.Share.PasswordHash = ""
	return out
}

func toOwnerShares(shares []model.Share) []ownerShare {
	out := make([]ownerShare, 0, len(shares))
	for i := range shares {
		out = append(out, toOwnerShare(&shares[i]))
	}
	return out
}

func (h *ShareHandler) Create(c *gin.Context) {
	var req service.ShareInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	share, err := h.shares.Create(c.Request.Context(), getUserID(c), c.Param("id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toOwnerShare(share))
}

func (h *ShareHandler) ListByDocument(c *gin.Context) {
	shares, err := h.shares.ListByDocument(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toOwnerShares(shares))
}

func (h *ShareHandler) ListMine(c *gin.Context) {
	shares, err := h.shares.ListMine(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toOwnerShares(shares))
}

func (h *ShareHandler) Update(c *gin.Context) {
	var req service.ShareInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	share, err := h.shares.Update(c.Request.Context(), getUserID(c), c.Param("id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, toOwnerShare(share))
}

func (h *ShareHandler) Revoke(c *gin.Context) {
	if err := h.shares.Revoke(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
