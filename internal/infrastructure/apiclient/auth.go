package apiclient

import (
	"context"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
	"github.com/fastygo/storefront/internal/config"
)

// AuthAPI calls the authentication endpoints directly on the transport,
// bypassing the 401 refresh policy. The session store depends on it, and
// the Client depends on the session store.
type AuthAPI struct {
	transport *Transport
	endpoints config.Endpoints
}

func NewAuthAPI(t *Transport, endpoints config.Endpoints) *AuthAPI {
	return &AuthAPI{transport: t, endpoints: endpoints}
}

// Login exchanges credentials for a token pair and the user record.
func (a *AuthAPI) Login(ctx context.Context, creds domain.Credentials) (*domain.AuthResult, error) {
	if strings.TrimSpace(creds.Login) == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredential
	}
	var resp transport.TokenResponse
	err := a.call(ctx, Request{
		Method: fasthttp.MethodPost,
		Path:   a.endpoints.Login,
		Body: transport.LoginRequest{
			EmailOrUsername: strings.TrimSpace(creds.Login),
			Password:        creds.Password,
		},
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return resp.AuthResult(), nil
}

// Refresh exchanges a refresh token for a new token pair.
func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResult, error) {
	var resp transport.TokenResponse
	err := a.call(ctx, Request{
		Method: fasthttp.MethodPost,
		Path:   a.endpoints.Refresh,
		Body:   transport.RefreshRequest{RefreshToken: refreshToken},
	}, "", &resp)
	if err != nil {
		return nil, err
	}
	return resp.AuthResult(), nil
}

// Me fetches the user record for accessToken.
func (a *AuthAPI) Me(ctx context.Context, accessToken string) (*domain.User, error) {
	var user domain.User
	err := a.call(ctx, Request{Method: fasthttp.MethodGet, Path: a.endpoints.Me}, accessToken, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an account. It does not sign the user in.
func (a *AuthAPI) Register(ctx context.Context, reg domain.Registration) (*domain.User, error) {
	var user domain.User
	err := a.call(ctx, Request{Method: fasthttp.MethodPost, Path: a.endpoints.Register, Body: reg}, "", &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *AuthAPI) call(ctx context.Context, req Request, token string, out any) error {
	resp, err := a.transport.Send(ctx, req, token)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return newStatusError(resp)
	}
	return decodeInto(resp, out)
}
