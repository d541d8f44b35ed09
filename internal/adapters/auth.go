package adapters

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"testagent/internal/gateway"
	"testagent/pkg/models"
)

// userDTO is the backend's wire representation of a user.
type userDTO struct {
	ID        flexString `json:"id"`
	MongoID   flexString `json:"_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Picture   string     `json:"picture"`
	AvatarURL string     `json:"avatar_url"`
	Provider  string     `json:"provider"`
	GitHubID  flexString `json:"github_id"`
	CreatedAt string     `json:"created_at"`
}

func (d userDTO) toProfile() *models.UserProfile {
	id := string(d.ID)
	if id == "" {
		id = string(d.MongoID)
	}
	picture := d.Picture
	if picture == "" {
		picture = d.AvatarURL
	}
	return &models.UserProfile{
		ID:        id,
		Email:     d.Email,
		Name:      d.Name,
		Picture:   picture,
		Provider:  d.Provider,
		GitHubID:  string(d.GitHubID),
		CreatedAt: d.CreatedAt,
	}
}

// flexString decodes a JSON string or number into its text form.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	Token       string   `json:"token"`
	TokenType   string   `json:"token_type"`
	User        *userDTO `json:"user"`
}

// LoginResult is a successful sign-in.
type LoginResult struct {
	Token *oauth2.Token
	User  *models.UserProfile
}

func (r loginResponse) result() *LoginResult {
	access := r.AccessToken
	if access == "" {
		access = r.Token
	}
	tokenType := r.TokenType
	if tokenType == "" || strings.EqualFold(tokenType, "bearer") {
		tokenType = "Bearer"
	}
	res := &LoginResult{Token: &oauth2.Token{AccessToken: access, TokenType: tokenType}}
	if r.User != nil {
		res.User = r.User.toProfile()
	}
	return res
}

// Auth exchanges identity provider credentials for a backend session.
type Auth struct {
	api API
}

// GoogleLogin exchanges a Google ID token for a backend access token.
func (a *Auth) GoogleLogin(ctx context.Context, idToken string) (*LoginResult, error) {
	var resp loginResponse
	body := map[string]string{"token": idToken}
	if err := a.api.Post(ctx, "/auth/google-login", &gateway.RequestOptions{Body: body}, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// GoogleCallback completes an authorization-code flow.
func (a *Auth) GoogleCallback(ctx context.Context, code, state string) (*LoginResult, error) {
	var resp loginResponse
	body := map[string]string{"code": code, "state": state}
	if err := a.api.Post(ctx, "/auth/google-oauth-callback", &gateway.RequestOptions{Body: body}, &resp); err != nil {
		return nil, err
	}
	return resp.result(), nil
}

// Me returns the profile of the current token's owner.
func (a *Auth) Me(ctx context.Context) (*models.UserProfile, error) {
	var dto userDTO
	if err := a.api.Get(ctx, "/auth/me", nil, &dto); err != nil {
		return nil, err
	}
	return dto.toProfile(), nil
}

// VerifyToken checks the current token and returns its owner when the
// backend includes one.
func (a *Auth) VerifyToken(ctx context.Context) (*models.UserProfile, error) {
	var resp struct {
		Valid *bool    `json:"valid"`
		User  *userDTO `json:"user"`
	}
	if err := a.api.Get(ctx, "/auth/verify-token", nil, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, nil
	}
	return resp.User.toProfile(), nil
}

// GitHubLoginURL is the browser entry point of the GitHub sign-in. The
// backend redirects to redirectURI with the token once the user approves.
func (a *Auth) GitHubLoginURL(redirectURI, state string) string {
	q := url.Values{}
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		q.Set("state", state)
	}
	u := a.api.BaseURL() + "/auth/github/login"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
