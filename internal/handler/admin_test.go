package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/account"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/auth"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/middleware"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/session"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/store"
)

func newAdminApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := store.NewMemory()
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	engine := auth.NewEngine(users, tokens, "", 4, zerolog.Nop())
	sessions := session.NewManager(time.Minute)

	r := gin.New()
	r.Use(middleware.WithSession(sessions))

	admin := r.Group("/api/admin", middleware.AuthRequired(users), middleware.AdminRequired())
	h := NewAdminHandler(engine, users, nil, zerolog.Nop())
	admin.GET("/accounts", h.ListAccounts)
	admin.PUT("/accounts", h.SaveAccounts)
	admin.POST("/accounts", h.Invite)
	admin.DELETE("/accounts/:email", h.DeleteAccount)
	admin.POST("/accounts/:email/toggle", h.ToggleStatus)
	admin.POST("/accounts/:email/recovery-code", h.RegenerateCode)

	return &testApp{router: r, users: users, engine: engine, sessions: sessions}
}

// signIn creates an authenticated session directly; the login endpoint has
// its own tests.
func (app *testApp) signIn(email string) string {
	s := app.sessions.Create()
	s.Email = email
	return s.ID
}

func seedAdminSet(t *testing.T, app *testApp) {
	t.Helper()
	app.seedUser(t, "boss@example.com", account.RoleAdmin)
	boss, err := app.users.FindByEmail(context.Background(), "boss@example.com")
	require.NoError(t, err)
	boss.Protected = true
	require.NoError(t, app.users.Upsert(context.Background(), boss))

	app.seedUser(t, "second@example.com", account.RoleAdmin)
	app.seedUser(t, "user@example.com", account.RoleUser)
}

func TestAdminEndpoints_RequireAdminRole(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("user@example.com")

	w, _ := app.do(t, http.MethodGet, "/api/admin/accounts", "", cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListAccounts_RedactsSecrets(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("second@example.com")

	w, body := app.do(t, http.MethodGet, "/api/admin/accounts", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	accounts := body["data"].(map[string]any)["accounts"].([]any)
	require.Len(t, accounts, 3)
	for _, raw := range accounts {
		a := raw.(map[string]any)
		_, leaked := a["password_hash"]
		assert.False(t, leaked, "password hash must never leave the server")
		if a["is_protected"] == true {
			// Another admin's protected account shows no recovery code.
			assert.Empty(t, a["recovery_code"])
		} else {
			assert.NotEmpty(t, a["recovery_code"])
		}
	}
}

func TestListAccounts_ProtectedViewerSeesOwnCode(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("boss@example.com")

	w, body := app.do(t, http.MethodGet, "/api/admin/accounts", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	accounts := body["data"].(map[string]any)["accounts"].([]any)
	for _, raw := range accounts {
		a := raw.(map[string]any)
		if a["email"] == "boss@example.com" {
			assert.NotEmpty(t, a["recovery_code"])
		}
	}
}

func TestSaveAccounts_ReturnsInvitations(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("boss@example.com")

	payload := `{"accounts":[
		{"email":"boss@example.com","name":"Boss","role":"admin","active":true,"is_protected":true},
		{"email":"second@example.com","name":"Second","role":"admin","active":true},
		{"email":"user@example.com","name":"User","role":"user","active":true},
		{"email":"new@example.com","name":"New","role":"user","active":true}
	]}`
	w, body := app.do(t, http.MethodPut, "/api/admin/accounts", payload, cookie)
	require.Equal(t, http.StatusOK, w.Code)

	invited := body["data"].(map[string]any)["invited"].([]any)
	require.Len(t, invited, 1)
	entry := invited[0].(map[string]any)
	assert.Equal(t, "new@example.com", entry["email"])
	assert.NotEmpty(t, entry["recovery_code"])
}

func TestSaveAccounts_ProtectedViolationRejected(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("second@example.com")

	payload := `{"accounts":[
		{"email":"boss@example.com","name":"Boss","role":"user","active":true,"is_protected":true},
		{"email":"second@example.com","name":"Second","role":"admin","active":true}
	]}`
	w, _ := app.do(t, http.MethodPut, "/api/admin/accounts", payload, cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInviteEndpoint(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("boss@example.com")

	w, body := app.do(t, http.MethodPost, "/api/admin/accounts", `{"email":"fresh@example.com"}`, cookie)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.NotEmpty(t, data["recovery_code"])

	w, _ = app.do(t, http.MethodPost, "/api/admin/accounts", `{"email":"fresh@example.com"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleStatusEndpoint(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("boss@example.com")

	w, body := app.do(t, http.MethodPost, "/api/admin/accounts/user@example.com/toggle", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["data"].(map[string]any)["active"])

	// Protected accounts cannot be switched off.
	w, _ = app.do(t, http.MethodPost, "/api/admin/accounts/boss@example.com/toggle", "", cookie)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteAccountEndpoint(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("boss@example.com")

	w, _ := app.do(t, http.MethodDelete, "/api/admin/accounts/user@example.com", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	_, err := app.users.FindByEmail(context.Background(), "user@example.com")
	assert.ErrorIs(t, err, store.ErrNotFound)

	w, _ = app.do(t, http.MethodDelete, "/api/admin/accounts/missing@example.com", "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegenerateCodeEndpoint(t *testing.T) {
	app := newAdminApp(t)
	seedAdminSet(t, app)
	cookie := app.signIn("boss@example.com")

	before, err := app.users.FindByEmail(context.Background(), "user@example.com")
	require.NoError(t, err)

	w, body := app.do(t, http.MethodPost, "/api/admin/accounts/user@example.com/recovery-code", "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, before.RecoveryCode, body["data"].(map[string]any)["recovery_code"])
}
