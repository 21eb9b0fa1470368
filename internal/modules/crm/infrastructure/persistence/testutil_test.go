package persistence

import (
	"testing"
	"time"

	"ClientPulse/internal/modules/crm/domain/entity"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: 每个连接都是独立库，限制为单连接
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.BusinessUnit{},
		&entity.Client{},
		&entity.ClientService{},
		&entity.Service{},
		&entity.Opportunity{},
		&entity.Task{},
	))
	return db
}

func int64Ptr(v int64) *int64 {
	return &v
}

type fixture struct {
	assignee *entity.User
	owner    *entity.User
	unit     *entity.BusinessUnit
	service  *entity.Service
	client   *entity.Client
	opp      *entity.Opportunity
}

func seedFixture(t *testing.T, db *gorm.DB) fixture {
	t.Helper()
	f := fixture{
		assignee: &entity.User{Email: "u1@example.com", Name: "Una", Role: entity.RoleSales},
		owner:    &entity.User{Email: "u3@example.com", Name: "Owen", Role: entity.RoleBUHead},
	}
	require.NoError(t, db.Create(f.assignee).Error)
	require.NoError(t, db.Create(f.owner).Error)

	f.unit = &entity.BusinessUnit{Name: "Creative", OwnerId: int64Ptr(f.owner.Id), Status: entity.BusinessUnitStatusActive}
	require.NoError(t, db.Create(f.unit).Error)
	f.service = &entity.Service{Name: "Brand Design", BusinessUnitId: int64Ptr(f.unit.Id)}
	require.NoError(t, db.Create(f.service).Error)
	f.client = &entity.Client{Name: "Acme", Industry: "Retail", AccountOwnerId: int64Ptr(f.assignee.Id)}
	require.NoError(t, db.Create(f.client).Error)
	f.opp = &entity.Opportunity{
		Name:           "Acme rebrand",
		ClientId:       f.client.Id,
		ServiceId:      f.service.Id,
		AssignedUserId: f.assignee.Id,
		Status:         entity.OpportunityStatusWon,
		Priority:       entity.PriorityHigh,
	}
	require.NoError(t, db.Create(f.opp).Error)
	return f
}

func seedTask(t *testing.T, db *gorm.DB, name string, oppID, userID int64, due time.Time, status string) *entity.Task {
	t.Helper()
	task := &entity.Task{Name: name, OpportunityId: oppID, AssignedUserId: userID, DueAt: due, Status: status}
	require.NoError(t, db.Create(task).Error)
	return task
}
