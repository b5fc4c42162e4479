package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/audit"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/middleware"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// AdminHandler serves the account administration surface.
type AdminHandler struct {
	engine  *auth.Engine
	users   store.UserStore
	auditDB *gorm.DB
	log     zerolog.Logger
}

func NewAdminHandler(engine *auth.Engine, users store.UserStore, auditDB *gorm.DB, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		engine:  engine,
		users:   users,
		auditDB: auditDB,
		log:     log,
	}
}

// accountView is the administration projection of an account. The password
// hash never leaves the server; the recovery code of a protected account is
// visible only to that account itself.
type accountView struct {
	Email         string       `json:"email"`
	Name          string       `json:"name"`
	Role          account.Role `json:"role"`
	Active        bool         `json:"active"`
	Confirmed     bool         `json:"confirmed"`
	Protected     bool         `json:"is_protected"`
	RecoveryCode  string       `json:"recovery_code"`
	HasCredential bool         `json:"has_credential"`
	Federated     bool         `json:"federated"`
}

func viewOf(a account.Account, viewer string) accountView {
	v := accountView{
		Email:         a.Email,
		Name:          a.Name,
		Role:          a.Role,
		Active:        a.Active,
		Confirmed:     a.Confirmed,
		Protected:     a.Protected,
		RecoveryCode:  a.RecoveryCode,
		HasCredential: a.HasCredential(),
		Federated:     a.FederatedID != "",
	}
	if a.Protected && a.Email != viewer {
		v.RecoveryCode = ""
	}
	return v
}

func (h *AdminHandler) ListAccounts(c *gin.Context) {
	all, err := h.users.ListAll(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	viewer := middleware.CurrentAccount(c).Email
	views := make([]accountView, 0, len(all))
	for _, a := range all {
		views = append(views, viewOf(a, viewer))
	}
	util.Success(c, util.Response{"accounts": views})
}

type desiredAccount struct {
	Email     string       `json:"email" binding:"required"`
	Name      string       `json:"name"`
	Role      account.Role `json:"role" binding:"required"`
	Active    bool         `json:"active"`
	Protected bool         `json:"is_protected"`
}

type saveAccountsReq struct {
	Accounts []desiredAccount `json:"accounts" binding:"required"`
}

// SaveAccounts replaces the whole account set with the submitted one. The
// response lists the newly invited accounts with their activation codes,
// which the administrator hands out by other means.
func (h *AdminHandler) SaveAccounts(c *gin.Context) {
	var req saveAccountsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	desired := make([]account.Account, 0, len(req.Accounts))
	for _, d := range req.Accounts {
		desired = append(desired, account.Account{
			Email:     d.Email,
			Name:      d.Name,
			Role:      d.Role,
			Active:    d.Active,
			Protected: d.Protected,
		})
	}
	invited, err := h.engine.BatchUpdate(c.Request.Context(), desired)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	viewer := middleware.CurrentAccount(c).Email
	views := make([]accountView, 0, len(invited))
	for _, a := range invited {
		views = append(views, viewOf(a, viewer))
	}
	util.Success(c, util.Response{"invited": views})
}

// Invite creates a single invitation and returns its activation code.
func (h *AdminHandler) Invite(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	a, err := h.engine.Invite(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{
		"email":         a.Email,
		"recovery_code": a.RecoveryCode,
	})
}

func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	email := account.NormalizeEmail(c.Param("email"))
	if err := h.engine.DeleteAccount(c.Request.Context(), email); err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, nil)
}

func (h *AdminHandler) ToggleStatus(c *gin.Context) {
	email := account.NormalizeEmail(c.Param("email"))
	a, err := h.engine.ToggleActive(c.Request.Context(), email)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{
		"email":  a.Email,
		"active": a.Active,
	})
}

// RegenerateCode rotates an account's recovery code and returns the new
// one. The previous code stops working immediately.
func (h *AdminHandler) RegenerateCode(c *gin.Context) {
	email := account.NormalizeEmail(c.Param("email"))
	code, err := h.engine.RegenerateRecoveryCode(c.Request.Context(), email)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{
		"email":         email,
		"recovery_code": code,
	})
}

// ListAudit returns the most recent audit trail entries, newest first.
func (h *AdminHandler) ListAudit(c *gin.Context) {
	if h.auditDB == nil {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "the audit trail is not enabled")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	entries, err := audit.List(h.auditDB, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{"entries": entries})
}
