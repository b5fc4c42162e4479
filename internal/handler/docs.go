package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/docs"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/middleware"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// DocsHandler serves the documentation catalog and its presigned links.
// A nil store means the documentation module is not configured; every
// endpoint then answers 404.
type DocsHandler struct {
	store *docs.Store
	log   zerolog.Logger
}

func NewDocsHandler(store *docs.Store, log zerolog.Logger) *DocsHandler {
	return &DocsHandler{store: store, log: log}
}

func (h *DocsHandler) available(c *gin.Context) bool {
	if h.store == nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "documentation is not configured")
		return false
	}
	return true
}

func (h *DocsHandler) Catalog(c *gin.Context) {
	if !h.available(c) {
		return
	}
	admin := middleware.CurrentAccount(c).IsAdmin()
	util.Success(c, util.Response{"categories": h.store.Catalog(admin)})
}

// View returns a short-lived presigned link for one document.
func (h *DocsHandler) View(c *gin.Context) {
	if !h.available(c) {
		return
	}
	admin := middleware.CurrentAccount(c).IsAdmin()
	item, ok := h.store.Lookup(c.Query("category"), c.Query("item"), admin)
	if !ok {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "no such document")
		return
	}
	url, err := h.store.ViewURL(c.Request.Context(), item.Key)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{
		"title": item.Title,
		"url":   url,
	})
}

// UploadURL returns a presigned upload link so an administrator can replace
// a document without the file passing through this server.
func (h *DocsHandler) UploadURL(c *gin.Context) {
	if !h.available(c) {
		return
	}
	item, ok := h.store.Lookup(c.Query("category"), c.Query("item"), true)
	if !ok {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "no such document")
		return
	}
	url, err := h.store.UploadURL(c.Request.Context(), item.Key)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{
		"title": item.Title,
		"url":   url,
	})
}
