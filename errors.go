package authclient

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeNetwork       = "auth_client_network"
	TextCodeServer        = "auth_client_server"
	TextCodeParse         = "auth_client_parse"
	TextCodeTokenRequired = "auth_client_token_required"
	TextCodeStorage       = "auth_client_storage"
	TextCodeValidation    = "auth_client_validation"
)

// ErrAuthenticationRequired is returned when an operation needs an access
// token and none is held. Checked before any network call.
var ErrAuthenticationRequired = errors.New("authentication required", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRequired).
	WithCode(errors.CodeUnauthorized)

func newNetworkError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryOperation, "Network error. Please check your connection").
		WithTextCode(TextCodeNetwork)
}

func newServerError(status int, detail string) *errors.Error {
	if detail == "" {
		detail = fmt.Sprintf("Server error: %d", status)
	}
	return errors.New(detail, errors.CategoryOperation).
		WithTextCode(TextCodeServer).
		WithCode(status).
		WithMetadata(map[string]any{"status": status})
}

func newParseError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryBadInput, msg).
		WithTextCode(TextCodeParse)
}

func newValidationError(err error) *errors.Error {
	return errors.Wrap(err, errors.CategoryValidation, err.Error()).
		WithTextCode(TextCodeValidation)
}

// isNetworkFailure is the single place connectivity failures are classified.
// Matching on error text is fragile but mirrors what the transport exposes;
// swap for typed transport errors if the HTTP client ever surfaces them.
func isNetworkFailure(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "fetch") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}

// IsNetworkError will check for classified connectivity failures
func IsNetworkError(err error) bool {
	return hasTextCode(err, TextCodeNetwork)
}

// IsServerError will check for non-2xx backend responses
func IsServerError(err error) bool {
	return hasTextCode(err, TextCodeServer)
}

// IsParseError will check for malformed bodies
func IsParseError(err error) bool {
	return hasTextCode(err, TextCodeParse)
}

// IsAuthenticationRequired will check for the missing-token failure
func IsAuthenticationRequired(err error) bool {
	return hasTextCode(err, TextCodeTokenRequired)
}

// ServerStatus extracts the HTTP status carried by a server error, or 0.
func ServerStatus(err error) int {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		return 0
	}
	if richErr.TextCode != TextCodeServer {
		return 0
	}
	return richErr.Code
}

func hasTextCode(err error, code string) bool {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode == code
	}
	return false
}

// errMessage resolves the user-facing message placed into the session error
// slot.
func errMessage(err error) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr.Message
	}
	return err.Error()
}
