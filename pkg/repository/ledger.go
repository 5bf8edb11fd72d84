package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/storefront/pkg/config"
	"github.com/example/storefront/pkg/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MySQLLedger stores payment records in MySQL.
type MySQLLedger struct {
	db *gorm.DB
}

func NewMySQLLedger(cfg *config.MySQLConfig) (*MySQLLedger, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&models.PaymentRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate payment records: %w", err)
	}

	return &MySQLLedger{db: db}, nil
}

func (l *MySQLLedger) Record(ctx context.Context, record *models.PaymentRecord) error {
	return l.db.WithContext(ctx).Create(record).Error
}

func (l *MySQLLedger) ListByOrder(ctx context.Context, orderID string) ([]models.PaymentRecord, error) {
	records := []models.PaymentRecord{}
	err := l.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").Order("id DESC").
		Find(&records).Error
	return records, err
}

func (l *MySQLLedger) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// NopLedger is used when MySQL is not configured.
type NopLedger struct{}

func (NopLedger) Record(context.Context, *models.PaymentRecord) error { return nil }

func (NopLedger) ListByOrder(context.Context, string) ([]models.PaymentRecord, error) {
	return []models.PaymentRecord{}, nil
}

func (NopLedger) Close() error { return nil }
