package persistence

import (
	"context"
	"time"

	"ClientPulse/internal/modules/crm/domain/entity"
	"ClientPulse/internal/modules/crm/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type clientRepositoryImpl struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) repository.ClientRepository {
	return &clientRepositoryImpl{db: db}
}

func (r *clientRepositoryImpl) GetClientByID(ctx context.Context, id int64) (*entity.Client, error) {
	var c entity.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, translateErr(err)
	}
	var serviceIDs []int64
	err := r.db.WithContext(ctx).
		Model(&entity.ClientService{}).
		Where("client_id = ?", id).
		Order("id ASC").
		Pluck("service_id", &serviceIDs).Error
	if err != nil {
		return nil, err
	}
	c.ServicesUsed = serviceIDs
	return &c, nil
}

func (r *clientRepositoryImpl) AddServiceToClient(ctx context.Context, clientID int64, serviceID int64) (bool, error) {
	// 依赖 uk_client_service 唯一索引实现并发安全的"不存在则插入"，不做读-改-写
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.ClientService{
			ClientId:  clientID,
			ServiceId: serviceID,
			CreatedAt: time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
