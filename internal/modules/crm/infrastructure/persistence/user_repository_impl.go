package persistence

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
)

type userRepositoryImpl struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepositoryImpl{db: db}
}

func (r *userRepositoryImpl) GetUserByID(ctx context.Context, id int64) (*entity.User, error) {
	var u entity.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}

func (r *userRepositoryImpl) FindFirstUserByRole(ctx context.Context, role string) (*entity.User, error) {
	var u entity.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("id ASC").
		First(&u).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &u, nil
}
