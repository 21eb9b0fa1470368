package initial

import (
	"fmt"
	"log"
	"os"
	"time"

	"ClientPulse/internal/config"
	crmEntity "ClientPulse/internal/modules/crm/domain/entity"
	notifEntity "ClientPulse/internal/modules/notification/domain/entity"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models 需要自动迁移的全部表
func Models() []interface{} {
	return []interface{}{
		&crmEntity.User{},
		&crmEntity.BusinessUnit{},
		&crmEntity.Client{},
		&crmEntity.ClientService{},
		&crmEntity.Service{},
		&crmEntity.Opportunity{},
		&crmEntity.Task{},

		&notifEntity.Notification{},
		&notifEntity.NotificationPreference{},
		&notifEntity.EmailOutbox{},
	}
}

func MysqlDSN(conf config.MysqlConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		conf.User, conf.Password, conf.Host, conf.Port, conf.DatabaseName)
}

func InitGorm(conf *config.Config) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(mysql.Open(MysqlDSN(conf.MysqlConfig)), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	// 自动迁移，如果没有建表，会自动创建对应的表
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return db, nil
}
