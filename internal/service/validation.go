package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jeovahfialho/rco-cli/internal/domain"
)

// Fetcher is the one call the query builders need from the HTTP client.
type Fetcher interface {
	Fetch(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("sortcolumn", func(fl validator.FieldLevel) bool {
		value := domain.SortColumn(fl.Field().String())
		for _, column := range domain.SortColumns {
			if column == value {
				return true
			}
		}
		return false
	})
	return validate
}

// validationError turns validator output into the domain error, naming the
// first offending field.
func validationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return &domain.ValidationError{Message: err.Error()}
	}

	fe := fieldErrors[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "sortcolumn":
		return domain.NewValidationError(field, "coluna desconhecida %q (válidas: %s)", fe.Value(), sortColumnList())
	case "oneof":
		return domain.NewValidationError(field, "valor %q inválido (válidos: %s)", fe.Value(), fe.Param())
	case "required":
		return domain.NewValidationError(field, "obrigatório")
	default:
		return domain.NewValidationError(field, "falhou na regra %s", fe.Tag())
	}
}

func sortColumnList() string {
	names := make([]string, len(domain.SortColumns))
	for i, column := range domain.SortColumns {
		names[i] = string(column)
	}
	return strings.Join(names, ", ")
}
