package fakeapi

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/storefront/domain"
)

const requestIDKey = "request_id"

type userHandler func(ctx *fasthttp.RequestCtx, user domain.User)

// requestID echoes or assigns X-Request-ID and logs every exchange.
func (s *Server) requestID(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		id := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
		if id == "" {
			id = uuid.NewString()
		}
		ctx.SetUserValue(requestIDKey, id)
		ctx.Response.Header.Set("X-Request-ID", id)

		start := time.Now()
		next(ctx)
		s.requestLogger(ctx).Debug("mock request",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

// authenticated resolves the bearer token to an active user.
func (s *Server) authenticated(next userHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		token := extractToken(ctx)
		if token == "" {
			s.fail(ctx, fasthttp.StatusUnauthorized, "Not authenticated")
			return
		}
		userID, err := s.verify(token, tokenAccess)
		if err != nil {
			s.requestLogger(ctx).Debug("rejected access token", zap.Error(err))
			s.fail(ctx, fasthttp.StatusUnauthorized, "Token inválido ou expirado")
			return
		}

		s.state.mu.Lock()
		acc, ok := s.state.users[userID]
		var user domain.User
		if ok {
			user = acc.user
		}
		s.state.mu.Unlock()

		if !ok || !user.IsActive {
			s.fail(ctx, fasthttp.StatusUnauthorized, "Usuário não encontrado ou inativo")
			return
		}
		next(ctx, user)
	}
}

func (s *Server) admin(next userHandler) fasthttp.RequestHandler {
	return s.authenticated(func(ctx *fasthttp.RequestCtx, user domain.User) {
		if !user.IsAdmin {
			s.fail(ctx, fasthttp.StatusForbidden, "Acesso negado: apenas administradores")
			return
		}
		next(ctx, user)
	})
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
