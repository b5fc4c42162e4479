// Package handler holds the HTTP layer: request binding, the mapping from
// the engine's error taxonomy to response envelopes, and nothing else.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/remote"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/util"
)

// genericCredentialMsg is the single answer for every refusal that would
// otherwise reveal whether an email is registered.
const genericCredentialMsg = "the email or the credentials provided are invalid"

// fail translates an engine error into the response envelope. Reasons that
// could confirm an account's existence all collapse into the same generic
// message; the precise cause is only ever in the server log.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var ve *auth.ValidationError
	if errors.As(err, &ve) {
		util.Errors(c, http.StatusBadRequest, util.CodeInvalidParam, ve.Messages)
		return
	}

	var ae *auth.AuthenticationError
	if errors.As(err, &ae) {
		switch ae.Reason {
		case auth.ReasonNoCredential:
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "this account has not finished registration, please complete it first")
		case auth.ReasonHasCredential:
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "this account is already active, please log in instead")
		case auth.ReasonDisabled:
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "your account has been disabled by an administrator")
		case auth.ReasonUnconfirmed:
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "your email address is pending confirmation, please check your inbox")
		case auth.ReasonLinkExhausted:
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "too many failed attempts, please restart the sign-in")
		default:
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, genericCredentialMsg)
		}
		return
	}

	var pe *auth.AuthorizationError
	if errors.As(err, &pe) {
		util.Error(c, http.StatusForbidden, util.CodeForbidden, pe.Msg)
		return
	}

	var ce *auth.ConfigurationError
	if errors.As(err, &ce) {
		log.Error().Str("detail", ce.Msg).Msg("request failed on server configuration")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "the server is not configured for this operation")
		return
	}

	var ue *remote.UnavailableError
	if errors.As(err, &ue) {
		log.Warn().Err(ue).Str("service", ue.Service).Msg("upstream service unavailable")
		util.Error(c, http.StatusServiceUnavailable, util.CodeUpstream, "the service is temporarily unavailable, please try again later")
		return
	}

	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "this confirmation link has expired, please request a new one")
	case errors.Is(err, auth.ErrTokenInvalid):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "this confirmation link is invalid")
	case errors.Is(err, auth.ErrNoPendingFlow):
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "your session has expired, please start over")
	case errors.Is(err, store.ErrNotFound):
		util.Error(c, http.StatusNotFound, util.CodeNotFound, "no such account")
	default:
		log.Error().Err(err).Msg("unhandled request error")
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "an internal error occurred")
	}
}

func badRequest(c *gin.Context) {
	util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request payload")
}
