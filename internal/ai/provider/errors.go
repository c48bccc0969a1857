package provider

import "fmt"

// Code is the closed error taxonomy surfaced to API callers. Raw HTTP and
// transport detail never leaks past this package.
type Code string

const (
	CodeNetworkError    Code = "NETWORK_ERROR"
	CodeInvalidKey      Code = "INVALID_KEY"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeModelNotFound   Code = "MODEL_NOT_FOUND"
	CodeProviderError   Code = "PROVIDER_ERROR"
	CodeInvalidResponse Code = "INVALID_RESPONSE"
)

type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// codeForStatus maps a vendor HTTP status to the taxonomy.
func codeForStatus(status int) Code {
	switch status {
	case 401, 403:
		return CodeInvalidKey
	case 404:
		return CodeModelNotFound
	case 429:
		return CodeRateLimited
	default:
		return CodeProviderError
	}
}
