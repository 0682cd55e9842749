package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MedicineCategory is the dosage-form classification of a medicine.
type MedicineCategory string

const (
	CategoryTablet    MedicineCategory = "tablet"
	CategoryCapsule   MedicineCategory = "capsule"
	CategorySyrup     MedicineCategory = "syrup"
	CategoryInjection MedicineCategory = "injection"
	CategoryOintment  MedicineCategory = "ointment"
	CategoryCream     MedicineCategory = "cream"
	CategorySolution  MedicineCategory = "solution"
	CategoryPowder    MedicineCategory = "powder"
	CategoryDrops     MedicineCategory = "drops"
	CategoryInhaler   MedicineCategory = "inhaler"
	CategoryOther     MedicineCategory = "other"
)

var medicineCategories = map[MedicineCategory]bool{
	CategoryTablet:    true,
	CategoryCapsule:   true,
	CategorySyrup:     true,
	CategoryInjection: true,
	CategoryOintment:  true,
	CategoryCream:     true,
	CategorySolution:  true,
	CategoryPowder:    true,
	CategoryDrops:     true,
	CategoryInhaler:   true,
	CategoryOther:     true,
}

// Valid reports whether c is one of the recognized categories.
func (c MedicineCategory) Valid() bool {
	return medicineCategories[c]
}

// Medicine represents a current-state inventory item. Quantity is only ever
// written by the stock mutation service; every change to it has a matching
// StockTransaction row.
type Medicine struct {
	ID           uint             `json:"id" gorm:"primarykey"`
	Name         string           `json:"name" gorm:"type:varchar(255);not null;index"`
	Manufacturer string           `json:"manufacturer" gorm:"type:varchar(255);not null"`
	Category     MedicineCategory `json:"category" gorm:"type:varchar(32);not null"`
	Description  string           `json:"description,omitempty" gorm:"type:text"`
	Price        decimal.Decimal  `json:"price" gorm:"type:numeric(12,2);not null"`
	Quantity     int              `json:"quantity" gorm:"not null;default:0;check:quantity >= 0"`
	ExpiryDate   time.Time        `json:"expiry_date" gorm:"not null"`
	BatchNumber  string           `json:"batch_number" gorm:"type:varchar(100);not null"`
	ReorderLevel int              `json:"reorder_level" gorm:"not null;default:10"`
	Barcode      *string          `json:"barcode,omitempty" gorm:"type:varchar(64);uniqueIndex"`
	Location     string           `json:"location,omitempty" gorm:"type:varchar(100)"`
	AddedByID    uint             `json:"added_by_id" gorm:"index"`
	AddedBy      *User            `json:"added_by,omitempty" gorm:"foreignKey:AddedByID"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	DeletedAt    gorm.DeletedAt   `json:"-" gorm:"index"`

	// Derived flags, never stored. Populated by AfterFind and Refresh.
	IsLowStock bool `json:"is_low_stock" gorm:"-"`
	IsExpired  bool `json:"is_expired" gorm:"-"`
}

// AfterFind computes the derived stock-status flags on every read.
func (m *Medicine) AfterFind(_ *gorm.DB) error {
	m.Refresh(time.Now())
	return nil
}

// Refresh recomputes the derived flags against the given reference time.
func (m *Medicine) Refresh(now time.Time) {
	m.IsLowStock = m.Quantity <= m.ReorderLevel
	m.IsExpired = !m.ExpiryDate.After(now)
}
