package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/federation"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/middleware"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/session"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// AuthHandler serves the login, registration, confirmation, password reset
// and federated sign-in endpoints.
type AuthHandler struct {
	engine    *auth.Engine
	sessions  *session.Manager
	providers federation.Set
	log       zerolog.Logger
}

func NewAuthHandler(engine *auth.Engine, sessions *session.Manager, providers federation.Set, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		engine:    engine,
		sessions:  sessions,
		providers: providers,
		log:       log,
	}
}

// ensureSession returns the caller's session, creating an anonymous one
// (and setting the cookie) when none exists. Multi-step flows need a
// session before the user is authenticated.
func (h *AuthHandler) ensureSession(c *gin.Context) *session.Session {
	if s := middleware.CurrentSession(c); s != nil {
		return s
	}
	s := h.sessions.Create()
	c.SetCookie(middleware.SessionCookie, s.ID, 0, "/", "", false, true)
	c.Set(middleware.ContextSession, s)
	return s
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	a, err := h.engine.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	s := h.ensureSession(c)
	s.Email = a.Email
	util.Success(c, util.Response{
		"email": a.Email,
		"name":  a.Name,
		"role":  a.Role,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if s := middleware.CurrentSession(c); s != nil {
		h.sessions.Destroy(s.ID)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	util.Success(c, nil)
}

type registerStartReq struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// RegisterStart is step one of registration: it validates the email plus
// activation code pair and stages the identity in the session. On an empty
// account store the code is checked against the first-run setup secret
// instead.
func (h *AuthHandler) RegisterStart(c *gin.Context) {
	var req registerStartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	s := h.ensureSession(c)
	if err := h.engine.StartRegistration(c.Request.Context(), req.Email, req.Code, &s.Flow); err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{"email": s.Flow.RegisterEmail})
}

type passwordPairReq struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// RegisterComplete finishes the staged registration with the chosen
// password. When the flow created the initial administrator, the response
// carries the fresh recovery code, shown exactly once.
func (h *AuthHandler) RegisterComplete(c *gin.Context) {
	var req passwordPairReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	s := h.ensureSession(c)
	wasSetup := s.Flow.SuperAdminSetup
	a, err := h.engine.CompleteRegistration(c.Request.Context(), &s.Flow, req.Password, req.ConfirmPassword)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	data := util.Response{"email": a.Email}
	if wasSetup {
		data["recovery_code"] = a.RecoveryCode
	}
	util.Success(c, data)
}

func (h *AuthHandler) Confirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		badRequest(c)
		return
	}
	if err := h.engine.ConfirmEmail(c.Request.Context(), token); err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, nil)
}

type emailReq struct {
	Email string `json:"email" binding:"required"`
}

// ResendConfirmation answers identically whether or not anything was sent,
// so the endpoint cannot be used to probe for accounts. There is no mail
// relay in this deployment; the confirmation link goes to the server log
// for an administrator to pass on.
func (h *AuthHandler) ResendConfirmation(c *gin.Context) {
	var req emailReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	token, sent, err := h.engine.ResendConfirmation(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	if sent {
		h.log.Info().Str("email", req.Email).Str("token", token).Msg("confirmation token issued")
	}
	util.Success(c, util.Response{
		"message": "if the account exists and is unconfirmed, a new confirmation link has been issued",
	})
}

// ResetStart validates the permanent recovery code and stages the reset.
func (h *AuthHandler) ResetStart(c *gin.Context) {
	var req registerStartReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	s := h.ensureSession(c)
	if err := h.engine.RequestPasswordReset(c.Request.Context(), req.Email, req.Code, &s.Flow); err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, util.Response{"email": s.Flow.ResetEmail})
}

func (h *AuthHandler) ResetComplete(c *gin.Context) {
	var req passwordPairReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	s := h.ensureSession(c)
	if err := h.engine.CompletePasswordReset(c.Request.Context(), &s.Flow, req.Password, req.ConfirmPassword); err != nil {
		fail(c, h.log, err)
		return
	}
	util.Success(c, nil)
}

// FederatedStart redirects the browser to the provider's authorization
// page, binding a state nonce to the session on the way out.
func (h *AuthHandler) FederatedStart(c *gin.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "unknown identity provider")
		return
	}
	s := h.ensureSession(c)
	s.OAuthState = uuid.NewString()
	c.Redirect(http.StatusFound, p.AuthCodeURL(s.OAuthState))
}

// FederatedCallback lands the provider redirect. It is a browser
// navigation, not an API call, so outcomes are redirects: back to the
// login page on failure, to the link page when local credentials are still
// needed, to the portal on success.
func (h *AuthHandler) FederatedCallback(c *gin.Context) {
	p, ok := h.providers[c.Param("provider")]
	if !ok {
		c.Redirect(http.StatusFound, "/?error=sso")
		return
	}
	s := h.ensureSession(c)
	state := s.OAuthState
	s.OAuthState = ""
	if state == "" || c.Query("state") != state {
		h.log.Warn().Str("provider", p.Name).Msg("federated callback refused: state mismatch")
		c.Redirect(http.StatusFound, "/?error=sso")
		return
	}

	tok, err := p.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		h.log.Warn().Err(err).Str("provider", p.Name).Msg("code exchange failed")
		c.Redirect(http.StatusFound, "/?error=sso")
		return
	}
	id, err := p.FetchIdentity(c.Request.Context(), tok)
	if err != nil {
		h.log.Warn().Err(err).Str("provider", p.Name).Msg("identity fetch failed")
		c.Redirect(http.StatusFound, "/?error=sso")
		return
	}

	a, pending, err := h.engine.FederatedLogin(c.Request.Context(), id.Subject, id.Email, &s.Flow)
	if err != nil {
		h.log.Info().Err(err).Str("provider", p.Name).Msg("federated login refused")
		c.Redirect(http.StatusFound, "/?error=refused")
		return
	}
	if pending {
		c.Redirect(http.StatusFound, "/link-account")
		return
	}
	s.Email = a.Email
	c.Redirect(http.StatusFound, "/dashboard")
}

// Link finishes a pending federated link with local credentials and signs
// the user in.
func (h *AuthHandler) Link(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	s := h.ensureSession(c)
	a, err := h.engine.CompleteLink(c.Request.Context(), &s.Flow, req.Email, req.Password)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	s.Email = a.Email
	util.Success(c, util.Response{
		"email": a.Email,
		"name":  a.Name,
		"role":  a.Role,
	})
}
