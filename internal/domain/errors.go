package domain

import (
	"fmt"
)

// ValidationError reports bad local input. It is always raised before any
// request leaves the process.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parâmetro inválido: %s", e.Message)
	}
	return fmt.Sprintf("parâmetro inválido %q: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// AuthError reports a missing credential or one rejected by the provider.
type AuthError struct {
	Message string
	Cause   error
}

func (e *AuthError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("falha de autenticação: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("falha de autenticação: %s", e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Cause
}

// NetworkError wraps a transport failure (dial, TLS, timeout, body read).
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("erro de rede (%s): %v", e.Op, e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// APIError is a non-2xx response. Message carries the provider's own
// error text when the body had one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api retornou status %d", e.StatusCode)
	}
	return fmt.Sprintf("api retornou status %d: %s", e.StatusCode, e.Message)
}

// DecodeError reports a body that could not be understood.
type DecodeError struct {
	What  string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("resposta inválida (%s): %v", e.What, e.Cause)
	}
	return fmt.Sprintf("resposta inválida (%s)", e.What)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

type NotFoundError struct {
	Ticker string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ticker %s não encontrado", e.Ticker)
}
