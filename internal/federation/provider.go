// Package federation wraps the two external identity providers behind one
// small surface: build the authorization redirect, exchange the code, fetch
// the verified identity claims. Any network failure degrades to a
// remote.UnavailableError so the HTTP layer can send the user back to the
// login page with a warning instead of faulting.
package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/microsoft"

	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/config"
	"github.com/Ferr09/app-web-consultation-donnees-historiques-amco/internal/remote"
)

// Identity is the minimum the portal needs from a provider: a stable
// subject identifier and, when the provider supplies one, a verified email.
type Identity struct {
	Subject string
	Email   string
}

type Provider struct {
	Name string

	cfg          *oauth2.Config
	userInfoURL  string
	subjectField string
	emailField   string
}

// Set holds the configured providers, keyed by path segment.
type Set map[string]*Provider

// NewSet builds the provider set from configuration. Providers without a
// client id are left out.
func NewSet(cfg config.OAuthConfig) Set {
	set := make(Set)
	if cfg.Google.ClientID != "" {
		set["google"] = NewGoogle(cfg.Google)
	}
	if cfg.Microsoft.ClientID != "" {
		set["microsoft"] = NewMicrosoft(cfg.Microsoft)
	}
	return set
}

func NewGoogle(cfg config.OAuthProviderConfig) *Provider {
	return &Provider{
		Name: "google",
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
		subjectField: "sub",
		emailField:   "email",
	}
}

func NewMicrosoft(cfg config.OAuthProviderConfig) *Provider {
	tenant := cfg.Tenant
	if tenant == "" {
		tenant = "common"
	}
	return &Provider{
		Name: "microsoft",
		cfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
			Scopes:       []string{"openid", "profile", "email", "User.Read"},
		},
		// Graph is also what proves the access token is live; see the note
		// in Exchange about ID token validation.
		userInfoURL:  "https://graph.microsoft.com/v1.0/me?$select=id,mail",
		subjectField: "id",
		emailField:   "mail",
	}
}

// AuthCodeURL is the authorization-redirect step.
func (p *Provider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
}

// Exchange swaps the callback code for an access token.
//
// TODO: validate the issuer and signature of the provider's ID token
// against its JWKS instead of relying on the follow-up user-info call
// alone.
func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, &remote.UnavailableError{Service: p.Name, Err: err}
	}
	return tok, nil
}

// FetchIdentity retrieves the subject identifier (and email, when exposed)
// from the provider's user-info endpoint.
func (p *Provider) FetchIdentity(ctx context.Context, tok *oauth2.Token) (Identity, error) {
	resp, err := p.cfg.Client(ctx, tok).Get(p.userInfoURL)
	if err != nil {
		return Identity{}, &remote.UnavailableError{Service: p.Name, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Identity{}, &remote.UnavailableError{
			Service: p.Name,
			Err:     fmt.Errorf("userinfo returned status %d", resp.StatusCode),
		}
	}

	var claims map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return Identity{}, &remote.UnavailableError{Service: p.Name, Err: fmt.Errorf("decode userinfo: %w", err)}
	}

	id := Identity{
		Subject: stringClaim(claims, p.subjectField),
		Email:   strings.ToLower(stringClaim(claims, p.emailField)),
	}
	if id.Subject == "" {
		return Identity{}, &remote.UnavailableError{
			Service: p.Name,
			Err:     fmt.Errorf("userinfo response is missing the %q field", p.subjectField),
		}
	}
	return id, nil
}

func stringClaim(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
