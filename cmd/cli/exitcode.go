package main

import (
	"errors"

	"github.com/jeovahfialho/rco-cli/internal/domain"
)

const (
	exitOK         = 0
	exitGeneric    = 1
	exitValidation = 2
	exitAuth       = 3
	exitNetwork    = 4
	exitAPI        = 5
	exitDecode     = 6
	exitNotFound   = 7
)

// exitCode maps the error kinds to stable process exit codes. AuthError is
// checked before APIError because a 401 carries both.
func exitCode(err error) int {
	var (
		validationErr *domain.ValidationError
		authErr       *domain.AuthError
		networkErr    *domain.NetworkError
		apiErr        *domain.APIError
		decodeErr     *domain.DecodeError
		notFoundErr   *domain.NotFoundError
	)

	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &validationErr):
		return exitValidation
	case errors.As(err, &authErr):
		return exitAuth
	case errors.As(err, &notFoundErr):
		return exitNotFound
	case errors.As(err, &networkErr):
		return exitNetwork
	case errors.As(err, &apiErr):
		return exitAPI
	case errors.As(err, &decodeErr):
		return exitDecode
	default:
		return exitGeneric
	}
}
