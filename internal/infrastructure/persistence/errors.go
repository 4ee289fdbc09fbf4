package persistence

import (
	"errors"

	"github.com/hms/pharmacy/internal/domain/shared"
	"gorm.io/gorm"
)

// translateUniqueViolation maps a unique-index violation onto the given
// domain error so transaction scopes can react to it; any other error
// passes through. Relies on TranslateError being set on the gorm
// config.
func translateUniqueViolation(err error, domainErr *shared.DomainError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainErr
	}
	return err
}
