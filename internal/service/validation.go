package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/boddenberg/driver-finance-go/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateInput runs the struct tags and returns the first failure as
// *domain.ErrValidation.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &domain.ErrValidation{Field: fe.Field(), Message: validationMessage(fe)}
	}
	return &domain.ErrValidation{Field: "body", Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "obrigatório"
	case "gte":
		return "deve ser maior ou igual a " + fe.Param()
	case "lte":
		return "deve ser menor ou igual a " + fe.Param()
	case "max":
		return "deve ter no máximo " + fe.Param() + " caracteres"
	case "datetime":
		return "data inválida, use AAAA-MM-DD"
	default:
		return "valor inválido"
	}
}
