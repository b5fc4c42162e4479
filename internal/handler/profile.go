package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/middleware"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// ProfileHandler serves the signed-in user's own account view.
type ProfileHandler struct {
	engine *auth.Engine
	log    zerolog.Logger
}

func NewProfileHandler(engine *auth.Engine, log zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{engine: engine, log: log}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	a := middleware.CurrentAccount(c)
	util.Success(c, util.Response{
		"email":         a.Email,
		"name":          a.Name,
		"role":          a.Role,
		"confirmed":     a.Confirmed,
		"is_protected":  a.Protected,
		"recovery_code": a.RecoveryCode,
		"federated":     a.FederatedID != "",
	})
}

// RegenerateOwnCode rotates the caller's recovery code. The new code must
// be noted immediately; it is the only way back in after a lost password.
func (h *ProfileHandler) RegenerateOwnCode(c *gin.Context) {
	a := middleware.CurrentAccount(c)
	code, err := h.engine.RegenerateRecoveryCode(c.Request.Context(), a.Email)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{"recovery_code": code})
}
