package db

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/payflow/gateway/internal/models"
	cfgpkg "github.com/payflow/gateway/pkg/config"
	gormzap "github.com/payflow/gateway/pkg/gormlog"
)

func NewDB(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, gorm.ErrInvalidDB
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{Logger: gormzap.New(l)})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to postgres via DSN")
	return db, nil
}

var Module = fx.Options(
	fx.Provide(NewDB),
	fx.Invoke(AutoMigrate),
	fx.Invoke(SeedTestMerchant),
	fx.Invoke(registerDBClose),
)

// AutoMigrate runs GORM migrations on startup
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Merchant{},
		&models.Order{},
		&models.Payment{},
		&models.Refund{},
		&models.WebhookLog{},
		&models.IdempotencyKey{},
	); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// Seed credentials for the built-in integration-test merchant.
const (
	TestMerchantID     = "550e8400-e29b-41d4-a716-446655440000"
	TestMerchantEmail  = "test@example.com"
	TestMerchantKey    = "key_test_abc123"
	TestMerchantSecret = "secret_test_xyz789"
	TestWebhookSecret  = "whsec_test_abc123"
)

// SeedTestMerchant inserts the test merchant when absent.
func SeedTestMerchant(l *zap.SugaredLogger, db *gorm.DB) error {
	var existing models.Merchant
	err := db.Where("email = ?", TestMerchantEmail).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	m := models.Merchant{
		ID:            TestMerchantID,
		Name:          "Test Merchant",
		Email:         TestMerchantEmail,
		APIKey:        TestMerchantKey,
		APISecret:     TestMerchantSecret,
		WebhookSecret: TestWebhookSecret,
	}
	if err := db.Create(&m).Error; err != nil {
		return err
	}
	l.Infow("seeded test merchant", "email", TestMerchantEmail)
	return nil
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				l.Warnw("gorm: get sql.DB failed", "err", err)
				return nil
			}
			l.Infow("closing postgres connection pool")
			return sqlDB.Close()
		},
	})
}
