package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ExpenseCategory enum constants
const (
	ExpenseRent      = "RENT"
	ExpenseSalary    = "SALARY"
	ExpenseTransport = "TRANSPORT"
	ExpenseOther     = "OTHER"
)

// Expense is a standalone cost entry in the ledger currency.
type Expense struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string          `gorm:"type:varchar(255);not null" json:"title"`
	Category    string          `gorm:"type:varchar(20);not null;index" json:"category"` // RENT, SALARY, TRANSPORT, OTHER
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description"`
	SpentAt     time.Time       `gorm:"not null;index" json:"spent_at"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
