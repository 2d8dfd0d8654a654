package api

import (
	"context"
	"errors"
	"strings"

	"legal-fee-tracker-go/internal/backend"
	"legal-fee-tracker-go/internal/schema"
	"legal-fee-tracker-go/internal/session"
)

// UserMessage maps an operation error to the text shown to the user and
// whether offering "try again" makes sense. Validation and authentication
// errors need new input or a new login, not a retry.
func UserMessage(err error) (string, bool) {
	if err == nil {
		return "", false
	}

	var ve *schema.ValidationError
	var re *backend.RemoteError
	switch {
	case errors.As(err, &ve):
		parts := make([]string, len(ve.Errors))
		for i, fe := range ve.Errors {
			parts[i] = fe.Field + " " + fe.Message
		}
		return "Please correct: " + strings.Join(parts, "; "), false
	case errors.Is(err, session.ErrSessionExpired):
		return "Your session expired. Please log in again.", false
	case errors.Is(err, session.ErrLoginInProgress):
		return "A login is already in progress.", false
	case errors.Is(err, session.ErrLoginFailed):
		return "Login failed. Please log in again.", false
	case errors.Is(err, session.ErrNotAuthenticated):
		return "You are not logged in.", false
	case errors.Is(err, ErrRoleUnresolved),
		errors.Is(err, ErrNotParty),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotActive),
		errors.Is(err, ErrEntryNotPending):
		return capitalize(err.Error()), false
	case errors.As(err, &re):
		return re.Message, true
	case errors.Is(err, context.DeadlineExceeded):
		return "The request timed out.", true
	case errors.Is(err, backend.ErrUnavailable):
		return "The service could not be reached.", true
	default:
		return "Something went wrong.", true
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
