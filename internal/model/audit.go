package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreateImport   = "CREATE_IMPORT"
	ActionCreateSale     = "CREATE_SALE"
	ActionApplyPayment   = "APPLY_PAYMENT"
	ActionPayImportBatch = "PAY_IMPORT_BATCH"
	ActionReconcileParty = "RECONCILE_PARTY"
	ActionCreateParty    = "CREATE_PARTY"
	ActionUpdateParty    = "UPDATE_PARTY"
	ActionDeleteParty    = "DELETE_PARTY"
	ActionCreateExpense  = "CREATE_EXPENSE"
	ActionDeleteExpense  = "DELETE_EXPENSE"
	ActionCreateAgent    = "CREATE_AGENT"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // nullable for automated actions
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:jsonb" json:"details"` // serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}
