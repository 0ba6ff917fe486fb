package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docshare/internal/pkg/errcode"
	"github.com/xxxsen/docshare/internal/pkg/response"
	"github.com/xxxsen/docshare/internal/service"
)

type PreferenceHandler struct {
	prefs *service.PreferenceService
}

func NewPreferenceHandler(prefs *service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{prefs: prefs}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	prefs, err := h.prefs.Get(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prefs)
}

func (h *PreferenceHandler) Update(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	prefs, err := h.prefs.Update(c.Request.Context(), getUserID(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prefs)
}

// Reset drops one override when the route carries :key, otherwise all of them.
func (h *PreferenceHandler) Reset(c *gin.Context) {
	prefs, err := h.prefs.Reset(c.Request.Context(), getUserID(c), c.Param("key"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, prefs)
}
