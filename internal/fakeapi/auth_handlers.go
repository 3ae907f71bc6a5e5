package fakeapi

import (
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
)

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	respondJSON(ctx, fasthttp.StatusOK, transport.MessageResponse{Message: "pizzaria api online"})
}

func (s *Server) login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if err := decodeBody(ctx, &req); err != nil {
		s.respondError(ctx, err)
		return
	}

	s.state.mu.Lock()
	acc := s.state.findLogin(req.EmailOrUsername)
	var user domain.User
	matched := acc != nil && acc.checkPassword(req.Password)
	if matched {
		user = acc.user
	}
	s.state.mu.Unlock()

	if !matched {
		s.fail(ctx, fasthttp.StatusUnauthorized, "Email/usuário ou senha incorretos")
		return
	}
	if !user.IsActive {
		s.fail(ctx, fasthttp.StatusUnauthorized, "Usuário desativado")
		return
	}
	s.respondTokens(ctx, user, true)
}

func (s *Server) refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if err := decodeBody(ctx, &req); err != nil {
		s.respondError(ctx, err)
		return
	}
	userID, err := s.verify(req.RefreshToken, tokenRefresh)
	if err != nil {
		s.fail(ctx, fasthttp.StatusUnauthorized, "Refresh token inválido ou expirado")
		return
	}

	s.state.mu.Lock()
	acc, ok := s.state.users[userID]
	var user domain.User
	if ok {
		user = acc.user
	}
	s.state.mu.Unlock()

	switch {
	case !ok:
		s.fail(ctx, fasthttp.StatusNotFound, "Usuário não encontrado")
	case !user.IsActive:
		s.fail(ctx, fasthttp.StatusUnauthorized, "Usuário desativado")
	default:
		s.respondTokens(ctx, user, false)
	}
}

// respondTokens issues an access token, plus a refresh token and the user
// record on login. Refresh keeps the caller's refresh token.
func (s *Server) respondTokens(ctx *fasthttp.RequestCtx, user domain.User, login bool) {
	access, err := s.issue(user.ID, tokenAccess, s.accessTTL)
	if err != nil {
		s.respondError(ctx, err)
		return
	}
	resp := transport.TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
	}
	if login {
		refresh, err := s.issue(user.ID, tokenRefresh, s.refreshTTL)
		if err != nil {
			s.respondError(ctx, err)
			return
		}
		resp.RefreshToken = refresh
		resp.RefreshExpiresIn = int(s.refreshTTL.Seconds())
		resp.User = &user
	}
	respondJSON(ctx, fasthttp.StatusOK, resp)
}

func (s *Server) register(ctx *fasthttp.RequestCtx) {
	var req domain.Registration
	if err := decodeBody(ctx, &req); err != nil {
		s.respondError(ctx, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.invalid(ctx, "password", err.Error())
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		s.invalid(ctx, "password", err.Error())
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	if s.state.findLogin(req.Email) != nil {
		s.fail(ctx, fasthttp.StatusBadRequest, "E-mail já existe")
		return
	}
	if s.state.findLogin(req.Username) != nil {
		s.fail(ctx, fasthttp.StatusBadRequest, "Nome de usuário já existe")
		return
	}
	acc := s.state.addUser(domain.User{
		Username: strings.ToLower(req.Username),
		Email:    req.Email,
		FullName: req.FullName,
	}, hash)
	respondJSON(ctx, fasthttp.StatusCreated, acc.user)
}

func (s *Server) me(ctx *fasthttp.RequestCtx, user domain.User) {
	respondJSON(ctx, fasthttp.StatusOK, user)
}

func (s *Server) updateMe(ctx *fasthttp.RequestCtx, user domain.User) {
	var req domain.ProfileUpdate
	if err := decodeBody(ctx, &req); err != nil {
		s.respondError(ctx, err)
		return
	}

	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	acc := s.state.users[user.ID]
	if req.Email != "" {
		acc.user.Email = req.Email
	}
	if req.Username != "" {
		acc.user.Username = strings.ToLower(req.Username)
	}
	if req.FullName != "" {
		acc.user.FullName = req.FullName
	}
	acc.user.UpdatedAt = domain.Timestamp{Time: s.now()}
	respondJSON(ctx, fasthttp.StatusOK, acc.user)
}
