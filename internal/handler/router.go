package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docshare/internal/middleware"
)

type RouterDeps struct {
	// Owner handlers are nil when the service runs without a database.
	Auth        *AuthHandler
	Documents   *DocumentHandler
	Shares      *ShareHandler
	Preferences *PreferenceHandler

	Guest *GuestHandler
	Files *FileHandler

	JWTSecret       []byte
	GuestSessionTTL time.Duration
	RateLimitWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	limited := middleware.RateLimit(deps.RateLimitWindow)

	guestGroup := api.Group("")
	guestGroup.Use(middleware.GuestSession(deps.GuestSessionTTL))
	guestGroup.GET("/share/:token", deps.Guest.Open)
	guestGroup.POST("/share/:token/unlock", deps.Guest.Unlock)
	guestGroup.GET("/share/:token/download", deps.Guest.Download)
	guestGroup.GET("/guest/document/:token", deps.Guest.Document)
	guestGroup.POST("/shares/:id/view", limited, deps.Guest.TrackView)
	if deps.Files != nil {
		api.GET("/files/:key", deps.Files.Get)
	}

	if deps.Auth == nil {
		return
	}
	api.POST("/auth/register", limited, deps.Auth.Register)
	api.POST("/auth/login", limited, deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/documents", deps.Documents.Upload)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)
	authGroup.POST("/documents/:id/summary", deps.Documents.Summary)

	authGroup.POST("/documents/:id/shares", deps.Shares.Create)
	authGroup.GET("/documents/:id/shares", deps.Shares.ListByDocument)
	authGroup.GET("/shares", deps.Shares.ListMine)
	authGroup.PUT("/shares/:id", deps.Shares.Update)
	authGroup.DELETE("/shares/:id", deps.Shares.Revoke)

	authGroup.GET("/preferences", deps.Preferences.Get)
	authGroup.PUT("/preferences", deps.Preferences.Update)
	authGroup.DELETE("/preferences", deps.Preferences.Reset)
	authGroup.DELETE("/preferences/:key", deps.Preferences.Reset)
}
