package persistence

import (
	"errors"

	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
)

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repository.ErrNotFound
	}
	return err
}
