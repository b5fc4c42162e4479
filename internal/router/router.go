// Package router wires the middleware chain and the HTTP surface.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/config"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/docs"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/federation"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/handler"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/middleware"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/query"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/session"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"

	auditpkg "github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/audit"
)

// Deps carries everything the HTTP surface needs, built once in main.
type Deps struct {
	Config    *config.Config
	Engine    *auth.Engine
	Sessions  *session.Manager
	Users     store.UserStore
	Providers federation.Set
	Reports   *query.Service
	Docs      *docs.Store
	AuditDB   *gorm.DB
	Log       zerolog.Logger
}

// Setup configures the gin engine: global middleware, then the public,
// authenticated and administrative route groups.
func Setup(d Deps) *gin.Engine {
	if d.Config.Server.Mode != "" {
		gin.SetMode(d.Config.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.IPAllowList(d.Config.Auth.AllowedIPs, d.Log))
	r.Use(middleware.WithSession(d.Sessions))

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(d.Engine, d.Sessions, d.Providers, d.Log)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/register/start", authHandler.RegisterStart)
	api.POST("/auth/register/complete", authHandler.RegisterComplete)
	api.GET("/auth/confirm", authHandler.Confirm)
	api.POST("/auth/confirm/resend", authHandler.ResendConfirmation)
	api.POST("/auth/reset/start", authHandler.ResetStart)
	api.POST("/auth/reset/complete", authHandler.ResetComplete)
	api.GET("/auth/oauth/:provider", authHandler.FederatedStart)
	api.GET("/auth/oauth/:provider/callback", authHandler.FederatedCallback)
	api.POST("/auth/link", authHandler.Link)

	signedIn := api.Group("")
	signedIn.Use(middleware.AuthRequired(d.Users))
	if d.AuditDB != nil {
		signedIn.Use(auditpkg.Middleware(d.AuditDB))
	}

	profileHandler := handler.NewProfileHandler(d.Engine, d.Log)
	signedIn.GET("/me", profileHandler.Me)
	signedIn.POST("/me/recovery-code", profileHandler.RegenerateOwnCode)

	reportHandler := handler.NewReportHandler(d.Reports, d.Log)
	signedIn.POST("/reports/:domain/query", reportHandler.Query)
	signedIn.POST("/reports/:domain/download", reportHandler.Download)

	docsHandler := handler.NewDocsHandler(d.Docs, d.Log)
	signedIn.GET("/docs", docsHandler.Catalog)
	signedIn.GET("/docs/view", docsHandler.View)

	admin := signedIn.Group("/admin")
	admin.Use(middleware.AdminRequired())

	adminHandler := handler.NewAdminHandler(d.Engine, d.Users, d.AuditDB, d.Log)
	admin.GET("/accounts", adminHandler.ListAccounts)
	admin.PUT("/accounts", adminHandler.SaveAccounts)
	admin.POST("/accounts", adminHandler.Invite)
	admin.DELETE("/accounts/:email", adminHandler.DeleteAccount)
	admin.POST("/accounts/:email/toggle", adminHandler.ToggleStatus)
	admin.POST("/accounts/:email/recovery-code", adminHandler.RegenerateCode)
	admin.GET("/audit", adminHandler.ListAudit)
	admin.GET("/docs/upload-url", docsHandler.UploadURL)

	return r
}
