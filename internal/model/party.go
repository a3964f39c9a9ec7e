package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PartyType enum constants
const (
	PartyTypeSupplier = "SUPPLIER"
	PartyTypeCustomer = "CUSTOMER"
	PartyTypeBoth     = "BOTH"
)

// Party represents a supplier, a customer, or both. The debt aggregates are
// maintained incrementally on every sale/import/payment and must always match
// the sum of remaining debts across the party's open documents.
type Party struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string          `gorm:"type:varchar(255);not null" json:"name"`
	Type      string          `gorm:"type:varchar(20);not null;index" json:"type"` // SUPPLIER, CUSTOMER, BOTH
	Phone     string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"phone"`
	Address   string          `gorm:"type:text" json:"address"`
	TotalOwed decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_owed"` // lifetime charges, ledger currency
	TotalPaid decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_paid"`
	TotalDebt decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"total_debt"` // max(total_owed - total_paid, 0)
	Payments  []Payment       `gorm:"foreignKey:PartyID" json:"payments,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

// Payment is one entry in a party's payment history. The optional references
// record which document the money was settled against.
type Payment struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PartyID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"party_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Note          string          `gorm:"type:text" json:"note"`
	SaleID        *uuid.UUID      `gorm:"type:uuid;index" json:"sale_id,omitempty"`
	ImportBatchID *uuid.UUID      `gorm:"type:uuid;index" json:"import_batch_id,omitempty"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}
