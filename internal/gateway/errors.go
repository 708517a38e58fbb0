package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError covers network failures and non-2xx HTTP responses.
type TransportError struct {
	Op      string
	Status  int // 0 when the request never got a response
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: HTTP %d: %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: HTTP %d", e.Op, e.Status)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a response that arrived intact but whose envelope reports failure.
type APIError struct {
	Op      string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request failed (code %d)", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// ValidationError rejects input before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUnauthorized reports whether the gateway rejected the credential.
func IsUnauthorized(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status == http.StatusUnauthorized || te.Status == http.StatusForbidden
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code == http.StatusUnauthorized || ae.Code == http.StatusForbidden
	}
	return false
}

// Message extracts the text to show a user for err.
func Message(err error) string {
	var (
		ve *ValidationError
		ae *APIError
		te *TransportError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	case errors.As(err, &te) && te.Message != "":
		return te.Message
	default:
		return err.Error()
	}
}
