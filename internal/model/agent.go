package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent is a field sales agent. Sales reference the agent who made them.
type Agent struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"phone"`
	Territory string         `gorm:"type:varchar(255)" json:"territory"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
