package database

import (
	"log"

	"backoffice/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.Party{},
		&model.Payment{},
		&model.StockLine{},
		&model.StockMovement{},
		&model.ImportBatch{},
		&model.ImportLine{},
		&model.Sale{},
		&model.SaleLine{},
		&model.PaymentEntry{},
		&model.Expense{},
		&model.Agent{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
