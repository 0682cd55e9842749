package model

import (
	"time"

	"gorm.io/gorm"
)

// Role determines which write operations a user may invoke.
type Role string

const (
	RoleAdmin      Role = "admin"
	RolePharmacist Role = "pharmacist"
	RoleStaff      Role = "staff"
)

// Valid reports whether r is a recognized role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RolePharmacist || r == RoleStaff
}

// User represents an account that can authenticate against the service.
// Medicines and transactions reference users by ID only; deleting a user
// never cascades into inventory data.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string         `json:"-" gorm:"type:varchar(255);not null"`
	Role      Role           `json:"role" gorm:"type:varchar(16);not null;default:'staff'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
