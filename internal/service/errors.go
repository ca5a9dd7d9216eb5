package service

import (
	"errors"

	"github.com/boddenberg/driver-finance-go/internal/domain"
)

// isDomainError reports errors the handler maps to a specific status.
func isDomainError(err error) bool {
	var (
		notFound   *domain.ErrNotFound
		validation *domain.ErrValidation
		missing    *domain.ErrMissingConfiguration
		open       *domain.ErrCircuitOpen
		timeout    *domain.ErrTimeout
	)
	return errors.As(err, &notFound) || errors.As(err, &validation) || errors.As(err, &missing) ||
		errors.As(err, &open) || errors.As(err, &timeout)
}
