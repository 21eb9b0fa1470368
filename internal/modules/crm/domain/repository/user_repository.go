package repository

import (
	"context"

	"ClientPulse/internal/modules/crm/domain/entity"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	// FindFirstUserByRole 按 id 升序返回第一个持有该角色的用户
	FindFirstUserByRole(ctx context.Context, role string) (*entity.User, error)
}
