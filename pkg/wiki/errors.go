package wiki

import (
	"errors"
	"fmt"
)

// ErrAuth marks failures caused by a missing or rejected login session.
// A run that hits it cannot submit anything and must stop.
var ErrAuth = errors.New("wiki authentication failed")

// authCodes are API error codes that mean the session is not usable.
var authCodes = map[string]bool{
	"badtoken":         true,
	"notloggedin":      true,
	"assertuserfailed": true,
	"assertbotfailed":  true,
	"permissiondenied": true,
	"readapidenied":    true,
	"writeapidenied":   true,
}

// APIError is an error object returned by the MediaWiki API.
type APIError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wiki API error %s: %s", e.Code, e.Info)
}

// Is lets errors.Is(err, ErrAuth) match session-related API errors.
func (e *APIError) Is(target error) bool {
	return target == ErrAuth && authCodes[e.Code]
}

// IsAuthFailure reports whether err means the wiki session is unusable.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrAuth)
}

// apiCode extracts the API error code from err, or "" if err is not an APIError.
func apiCode(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}
