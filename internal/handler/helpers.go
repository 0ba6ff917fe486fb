package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/docshare/internal/middleware"
	"github.com/xxxsen/docshare/internal/pkg/errcode"
	appErr "github.com/xxxsen/docshare/internal/pkg/errors"
	"github.com/xxxsen/docshare/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	return c.GetString(middleware.ContextUserIDKey)
}

type errorMapping struct {
	target  error
	code    int
	message string
}

var errorMappings = []errorMapping{
	{appErr.ErrUnauthorized, errcode.ErrUnauthorized, "unauthorized"},
	{appErr.ErrForbidden, errcode.ErrForbidden, "forbidden"},
	{appErr.ErrNotFound, errcode.ErrNotFound, "not found"},
	{appErr.ErrInvalid, errcode.ErrInvalid, "invalid request"},
	{appErr.ErrConflict, errcode.ErrConflict, "conflict"},
	{appErr.ErrTooMany, errcode.ErrTooMany, "too many requests"},
	{appErr.ErrRevoked, errcode.ErrShareRevoked, "this share has been revoked"},
	{appErr.ErrExpired, errcode.ErrShareExpired, "this share has expired"},
	{appErr.ErrStorageMissing, errcode.ErrStorageMissing, "document file is missing"},
	{appErr.ErrSignedURL, errcode.ErrSignedURL, "signed url generation failed"},
	{appErr.ErrWrongPassword, errcode.ErrWrongPassword, "incorrect password"},
	{appErr.ErrPasswordRequired, errcode.ErrPasswordRequired, "password required"},
	{appErr.ErrDownloadForbidden, errcode.ErrDownloadForbidden, "download is not allowed for this share"},
	{appErr.ErrAIUnavailable, errcode.ErrAIUnavailable, "ai is not available"},
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("request_id", c.GetString(middleware.ContextRequestIDKey)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			logutil.GetLogger(c.Request.Context()).Debug("request failed", fields...)
			response.Error(c, m.code, m.message)
			return
		}
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed", fields...)
	response.Error(c, errcode.ErrInternal, "internal error")
}
