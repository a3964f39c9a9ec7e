package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod enum constants. The method is derived from the paid amount
// against the total, never stored from free-form input.
const (
	PaymentCash  = "cash"
	PaymentCard  = "card"
	PaymentDebt  = "debt"
	PaymentMixed = "mixed"
)

// Sale is one customer transaction. TotalAmount never changes after creation;
// PaidAmount and RemainingDebt are mutated only by payment application.
type Sale struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	InvoiceNo     string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer      *Party          `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	AgentID       *uuid.UUID      `gorm:"type:uuid;index" json:"agent_id,omitempty"` // nil when sold by an admin
	Agent         *Agent          `gorm:"foreignKey:AgentID" json:"agent,omitempty"`
	Lines         []SaleLine      `gorm:"foreignKey:SaleID" json:"lines"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"total_amount"` // ledger currency
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"paid_amount"`
	RemainingDebt decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"remaining_debt"`
	PaymentMethod string          `gorm:"type:varchar(10);not null" json:"payment_method"` // cash, card, debt, mixed
	Payments      []PaymentEntry  `gorm:"foreignKey:SaleID" json:"payments"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleLine snapshots the sold stock line at sale time so later price edits in
// the warehouse do not rewrite history.
type SaleLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	StockLineID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"stock_line_id"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Unit          string          `gorm:"type:varchar(10);not null" json:"unit"`
	Quantity      int             `gorm:"type:int;not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"unit_price"`     // sell price charged
	PurchasePrice decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"purchase_price"` // cost at sale time
	Currency      string          `gorm:"type:varchar(10);not null" json:"currency"`
	BatchNumber   int64           `gorm:"not null" json:"batch_number"`
}

// PaymentEntry is one row of a sale's payment history.
type PaymentEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"sale_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Note      string          `gorm:"type:text" json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}
