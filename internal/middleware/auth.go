package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/session"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// SessionCookie is the browser cookie holding the session id.
const SessionCookie = "sid"

// ContextAccount and ContextSession are the gin context keys set by the
// middleware below.
const (
	ContextAccount = "currentAccount"
	ContextSession = "currentSession"
)

// WithSession resolves the caller's session when the cookie carries a live
// one and stores it in the gin context. It never rejects: anonymous
// requests simply proceed without a session.
func WithSession(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := c.Cookie(SessionCookie); err == nil {
			if s := sessions.Get(id); s != nil {
				c.Set(ContextSession, s)
			}
		}
		c.Next()
	}
}

// AuthRequired admits only requests whose session is bound to a live,
// active account, and puts the account in the gin context.
func AuthRequired(users store.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := CurrentSession(c)
		if sess == nil || !sess.Authenticated() {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "not signed in")
			c.Abort()
			return
		}
		a, err := users.FindByEmail(c.Request.Context(), sess.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "account no longer exists")
			} else {
				util.Error(c, http.StatusServiceUnavailable, util.CodeUpstream, "service unavailable, please try again later")
			}
			c.Abort()
			return
		}
		if !a.Active {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "your account has been disabled by an administrator")
			c.Abort()
			return
		}
		c.Set(ContextAccount, &a)
		c.Next()
	}
}

// AdminRequired sits behind AuthRequired and admits admins only.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := CurrentAccount(c)
		if a == nil || !a.IsAdmin() {
			util.Error(c, http.StatusForbidden, util.CodeForbidden, "administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentSession returns the session placed by WithSession, or nil.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(*session.Session); ok {
			return s
		}
	}
	return nil
}

// CurrentAccount returns the account placed by AuthRequired, or nil.
func CurrentAccount(c *gin.Context) *account.Account {
	if v, ok := c.Get(ContextAccount); ok {
		if a, ok := v.(*account.Account); ok {
			return a
		}
	}
	return nil
}
