package persistence

import (
	"errors"

	"github.com/fieldbook/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// saveError maps a unique constraint violation to a CONFLICT domain error.
// The unique indexes on document numbers and conversion keys are the last
// guard when two requests race past the existence checks.
func saveError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewDomainError(shared.CodeConflict, what+" was saved concurrently, please retry")
	}
	return err
}
