package model

import "time"

// TransactionType classifies a stock-affecting event.
type TransactionType string

const (
	TxStockIn    TransactionType = "stock-in"
	TxStockOut   TransactionType = "stock-out"
	TxAdjustment TransactionType = "adjustment"
	TxExpired    TransactionType = "expired"
	TxReturn     TransactionType = "return"
)

var transactionTypes = map[TransactionType]bool{
	TxStockIn:    true,
	TxStockOut:   true,
	TxAdjustment: true,
	TxExpired:    true,
	TxReturn:     true,
}

// Valid reports whether t is one of the five recognized transaction types.
func (t TransactionType) Valid() bool {
	return transactionTypes[t]
}

// StockTransaction is an immutable ledger entry. Rows are only ever appended;
// there is no UpdatedAt or DeletedAt because entries are never modified or
// removed after creation.
type StockTransaction struct {
	ID               uint            `json:"id" gorm:"primarykey"`
	MedicineID       uint            `json:"medicine_id" gorm:"index;not null"`
	Medicine         *Medicine       `json:"medicine,omitempty" gorm:"foreignKey:MedicineID"`
	Type             TransactionType `json:"type" gorm:"type:varchar(16);not null;index"`
	Quantity         int             `json:"quantity" gorm:"not null"`
	PreviousQuantity int             `json:"previous_quantity" gorm:"not null"`
	UpdatedQuantity  int             `json:"updated_quantity" gorm:"not null;check:updated_quantity >= 0"`
	Reason           string          `json:"reason,omitempty" gorm:"type:text"`
	PerformedByID    uint            `json:"performed_by_id" gorm:"index;not null"`
	PerformedBy      *User           `json:"performed_by,omitempty" gorm:"foreignKey:PerformedByID"`
	CreatedAt        time.Time       `json:"created_at" gorm:"index"`
}
