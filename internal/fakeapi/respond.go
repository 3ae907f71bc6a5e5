package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
	appLogger "github.com/fastygo/storefront/pkg/logger"
)

func respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, status int, detail string) {
	respondJSON(ctx, status, transport.NewDetail(detail))
}

// invalid answers 422 with a single field issue, the shape the backend's
// request validation produces.
func (s *Server) invalid(ctx *fasthttp.RequestCtx, field, msg string) {
	raw, _ := json.Marshal([]transport.ValidationIssue{{
		Loc:  []any{"body", field},
		Msg:  msg,
		Type: "value_error",
	}})
	respondJSON(ctx, http.StatusUnprocessableEntity, transport.ErrorResponse{Detail: raw})
}

func (s *Server) respondError(ctx *fasthttp.RequestCtx, err error) {
	status := mapError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("mock handler failed", zap.Error(err))
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		s.fail(ctx, status, derr.Message)
		return
	}
	s.fail(ctx, status, err.Error())
}

func mapError(err error) int {
	switch {
	case domain.IsDomainError(err, domain.ErrCodeUnauthorized):
		return http.StatusUnauthorized
	case domain.IsDomainError(err, domain.ErrCodeForbidden):
		return http.StatusForbidden
	case domain.IsDomainError(err, domain.ErrCodeValidation):
		return http.StatusUnprocessableEntity
	case domain.IsDomainError(err, domain.ErrCodeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(ctx *fasthttp.RequestCtx, out any) error {
	if err := json.Unmarshal(ctx.PostBody(), out); err != nil {
		return domain.WrapError(domain.ErrCodeValidation, "malformed JSON body", err)
	}
	return nil
}

func pathID(ctx *fasthttp.RequestCtx) (int64, bool) {
	raw, _ := ctx.UserValue("id").(string)
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id > 0
}

func queryInt(ctx *fasthttp.RequestCtx, key string, fallback int) int {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return fallback
	}
	v, err := strconv.Atoi(string(raw))
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func queryBool(ctx *fasthttp.RequestCtx, key string, fallback bool) bool {
	raw := ctx.QueryArgs().Peek(key)
	if len(raw) == 0 {
		return fallback
	}
	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		return fallback
	}
	return v
}

func (s *Server) requestLogger(ctx *fasthttp.RequestCtx) *zap.Logger {
	id, _ := ctx.UserValue(requestIDKey).(string)
	return appLogger.WithRequestID(appLogger.ContextWithRequestID(ctx, id), s.logger)
}
