package output

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	"github.com/fastygo/storefront/domain"
)

// Exit code constants
const (
	ExitSuccess    = 0
	ExitGeneral    = 1
	ExitUsageError = 2
	ExitAuthError  = 3
	ExitConfigErr  = 4
	ExitOffline    = 5
)

// CLIError is a structured error with user-facing context
type CLIError struct {
	Summary    string
	Detail     string
	Suggestion string
	ExitCode   int
}

func (e *CLIError) Error() string {
	return e.Summary
}

// Describe maps an error to the message shown to the user. The backend
// detail is kept as the cause when it adds information.
func Describe(err error) *CLIError {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	e := &CLIError{Summary: err.Error(), ExitCode: ExitGeneral}
	switch domain.CodeOf(err) {
	case domain.ErrCodeNetwork:
		e.Summary = "Could not reach the server"
		e.Suggestion = "check your connection and API_BASE_URL"
		e.ExitCode = ExitOffline
	case domain.ErrCodeTimeout:
		e.Summary = "The server took too long to answer"
		e.Suggestion = "try again in a moment"
		e.ExitCode = ExitOffline
	case domain.ErrCodeUnauthorized:
		e.Summary = "Your session has expired"
		e.Suggestion = "run 'storefront login' again"
		e.ExitCode = ExitAuthError
	case domain.ErrCodeUnauthenticated:
		e.Summary = "You are not signed in"
		e.Suggestion = "run 'storefront login' first"
		e.ExitCode = ExitAuthError
	case domain.ErrCodeForbidden:
		e.Summary = "You do not have permission to do that"
		e.ExitCode = ExitAuthError
	case domain.ErrCodeNotFound:
		e.Summary = "Not found"
	case domain.ErrCodeValidation:
		e.Summary = "Invalid data"
	case domain.ErrCodeInvalidQuantity:
		e.Summary = "Invalid item or quantity"
		e.Suggestion = fmt.Sprintf("quantities go from %d to %d", domain.MinLineQuantity, domain.MaxLineQuantity)
		e.ExitCode = ExitUsageError
	case domain.ErrCodeQuantityExceeded:
		e.Summary = fmt.Sprintf("At most %d units of an item fit in the cart", domain.MaxLineQuantity)
		e.ExitCode = ExitUsageError
	case domain.ErrCodeServer:
		e.Summary = "The server failed to handle the request"
		e.Suggestion = "try again later"
	default:
		return e
	}
	if e.Summary != err.Error() {
		e.Detail = err.Error()
	}
	return e
}

// FormatError prints a structured error message to stderr
func (p *Printer) FormatError(e *CLIError) {
	if p.useColors {
		color.New(color.FgRed, color.Bold).Fprintf(p.err, "Error: %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			color.New(color.FgCyan).Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	} else {
		fmt.Fprintf(p.err, "[ERROR] %s\n", e.Summary)
		if e.Detail != "" {
			fmt.Fprintf(p.err, "  Cause: %s\n", e.Detail)
		}
		if e.Suggestion != "" {
			fmt.Fprintf(p.err, "  Suggestion: %s\n", e.Suggestion)
		}
	}
}
