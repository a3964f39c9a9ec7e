package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportStatus enum constants
const (
	ImportStatusPaid    = "PAID"
	ImportStatusPartial = "PARTIAL"
	ImportStatusUnpaid  = "UNPAID"
)

// ImportBatch is one incoming shipment from a supplier. Lines may be priced in
// a foreign currency; TotalAmount and RemainingDebt are always in the ledger
// currency. BatchNumber is globally monotonic.
type ImportBatch struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      *Party          `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	BatchNumber   int64           `gorm:"uniqueIndex;not null" json:"batch_number"`
	ExchangeRate  decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"exchange_rate"` // USD -> UZS
	Lines         []ImportLine    `gorm:"foreignKey:ImportBatchID" json:"lines"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"` // ledger currency
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`
	RemainingDebt decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_debt"`
	Status        string          `gorm:"type:varchar(20);not null;index" json:"status"` // PAID, PARTIAL, UNPAID
	Note          string          `gorm:"type:text" json:"note"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ImportLine is one product position inside an import batch. LedgerTotal is
// the line total converted to the ledger currency; PaidAmount is the line's
// proportional share of the batch payments.
type ImportLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ImportBatchID uuid.UUID       `gorm:"type:uuid;not null;index" json:"import_batch_id"`
	Title         string          `gorm:"type:varchar(255);not null" json:"title"`
	Unit          string          `gorm:"type:varchar(10);not null" json:"unit"`
	Quantity      int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`  // line currency
	TotalPrice    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_price"` // line currency
	Currency      string          `gorm:"type:varchar(10);not null" json:"currency"`
	SellPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"sell_price"`
	LedgerTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"ledger_total"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`
	RemainingDebt decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_debt"`
}
