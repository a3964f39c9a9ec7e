package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency enum constants. UZS is the ledger currency; every aggregate is
// stored in it.
const (
	CurrencyUZS = "UZS"
	CurrencyUSD = "USD"
)

// Unit enum constants
const (
	UnitKg    = "kg"
	UnitPiece = "dona"
	UnitLiter = "litr"
)

// StockLine is one warehouse position created from a single import line.
// Quantity is mutated only by sale reservation and rollback; the line is never
// deleted while a sale references it.
type StockLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductName   string          `gorm:"type:varchar(255);not null;index" json:"product_name"`
	Unit          string          `gorm:"type:varchar(10);not null" json:"unit"` // kg, dona, litr
	Quantity      int             `gorm:"type:int;not null;check:quantity >= 0" json:"quantity"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_cost"`  // purchase price per unit, line currency
	SellPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"sell_price"` // per unit, line currency
	TotalCost     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_cost"` // line currency
	Currency      string          `gorm:"type:varchar(10);not null" json:"currency"`
	BatchNumber   int64           `gorm:"not null;index" json:"batch_number"`
	ImportBatchID uuid.UUID       `gorm:"type:uuid;not null;index" json:"import_batch_id"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      *Party          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`    // ledger currency, allocated share
	RemainingDebt decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_debt"` // ledger currency
	Note          string          `gorm:"type:text" json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MovementType enum constants
const (
	MovementIn  = "IN"
	MovementOut = "OUT"
)

// StockMovement records every quantity change on a stock line together with
// the quantity left after it (warehouse card).
type StockMovement struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	StockLineID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"stock_line_id"`
	SaleID        *uuid.UUID `gorm:"type:uuid;index" json:"sale_id,omitempty"` // nil for import receipts and rollbacks
	Type          string     `gorm:"type:varchar(10);not null" json:"type"`    // IN, OUT
	Quantity      int        `gorm:"type:int;not null" json:"quantity"`
	QuantityAfter int        `gorm:"type:int;not null" json:"quantity_after"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
}
