package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/storefront/api/transport"
	"github.com/fastygo/storefront/domain"
)

// APIError is returned for every failed call: transport failures carry a
// zero Status, HTTP failures carry the status and the raw response body.
type APIError struct {
	Status  int
	Kind    domain.ErrorCode
	Message string
	Raw     []byte
	Err     error
}

func (e *APIError) Error() string {
	msg := e.Message
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) ErrorCode() domain.ErrorCode { return e.Kind }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

var statusMessages = map[int]string{
	http.StatusBadRequest:          "invalid request",
	http.StatusUnauthorized:        "unauthorized, please sign in again",
	http.StatusForbidden:           "access denied",
	http.StatusNotFound:            "resource not found",
	http.StatusUnprocessableEntity: "invalid data provided",
	http.StatusInternalServerError: "internal server error",
}

func statusKind(status int) domain.ErrorCode {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return domain.ErrCodeValidation
	case status == http.StatusUnauthorized:
		return domain.ErrCodeUnauthorized
	case status == http.StatusForbidden:
		return domain.ErrCodeForbidden
	case status == http.StatusNotFound:
		return domain.ErrCodeNotFound
	case status >= 500:
		return domain.ErrCodeServer
	default:
		return domain.ErrCodeUnknown
	}
}

func newStatusError(resp *Response) *APIError {
	msg := detailMessage(resp.Body)
	if msg == "" {
		msg = statusMessages[resp.Status]
	}
	if msg == "" && resp.Status >= 500 {
		msg = statusMessages[http.StatusInternalServerError]
	}
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", resp.Status)
	}
	return &APIError{
		Status:  resp.Status,
		Kind:    statusKind(resp.Status),
		Message: msg,
		Raw:     resp.Body,
	}
}

// detailMessage extracts the human-readable part of an error body.
func detailMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload transport.ErrorResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if msg := decodeDetail(payload.Detail); msg != "" {
		return msg
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

func decodeDetail(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var issues []transport.ValidationIssue
	if err := json.Unmarshal(raw, &issues); err == nil {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			if issue.Msg != "" {
				msgs = append(msgs, issue.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func transportError(err error) *APIError {
	if isTimeout(err) {
		return &APIError{Kind: domain.ErrCodeTimeout, Message: "request timed out", Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &APIError{Kind: domain.ErrCodeUnknown, Message: "request cancelled", Err: err}
	}
	return &APIError{Kind: domain.ErrCodeNetwork, Message: "network unavailable", Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, fasthttp.ErrTimeout) ||
		errors.Is(err, fasthttp.ErrDialTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func decodeError(resp *Response, err error) *APIError {
	return &APIError{
		Status:  resp.Status,
		Kind:    domain.ErrCodeUnknown,
		Message: "unreadable response body",
		Raw:     resp.Body,
		Err:     err,
	}
}
