// Package store defines the persistence interfaces consumed by the stock
// mutation service and the HTTP handlers. Two implementations exist:
// gormstore (postgres) and memstore (in-memory, used by tests).
package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pharmacy-service/internal/model"
)

// MedicineFilter narrows a medicine listing.
type MedicineFilter struct {
	Category model.MedicineCategory
	// Search matches case-insensitively against name, manufacturer,
	// batch number and barcode.
	Search   string
	LowStock bool
	Expired  bool
}

// TransactionFilter narrows a ledger listing. Zero values mean "no filter".
type TransactionFilter struct {
	MedicineID uint
	Type       model.TransactionType
	Start      *time.Time
	End        *time.Time
}

// MedicineUpdate is a partial field edit. It deliberately has no quantity
// field: quantity changes go through the stock mutation service so that every
// change is paired with a ledger entry.
type MedicineUpdate struct {
	Name         *string
	Manufacturer *string
	Category     *model.MedicineCategory
	Description  *string
	Price        *decimal.Decimal
	ExpiryDate   *time.Time
	BatchNumber  *string
	ReorderLevel *int
	Barcode      *string
	Location     *string
}

// MedicineStore holds current-state inventory rows.
type MedicineStore interface {
	Get(ctx context.Context, id uint) (*model.Medicine, error)
	// GetForUpdate reads a medicine while holding a write lock on its row
	// until the enclosing Atomically scope ends. Only meaningful inside
	// Atomically; the stock mutation service is its sole caller.
	GetForUpdate(ctx context.Context, id uint) (*model.Medicine, error)
	FindByBarcode(ctx context.Context, code string) (*model.Medicine, error)
	List(ctx context.Context, f MedicineFilter) ([]model.Medicine, error)
	// Create rejects a duplicate barcode with apperr.ErrConflict.
	Create(ctx context.Context, m *model.Medicine) error
	Update(ctx context.Context, id uint, u MedicineUpdate) (*model.Medicine, error)
	// SetQuantity writes the quantity column and bumps UpdatedAt. Callers
	// outside the stock mutation service must not use it.
	SetQuantity(ctx context.Context, id uint, quantity int) error
	Delete(ctx context.Context, id uint) error
}

// TransactionLedger is the append-only log of stock-affecting events.
// There is no update or delete: corrections are new transactions.
type TransactionLedger interface {
	Append(ctx context.Context, tx *model.StockTransaction) error
	Get(ctx context.Context, id uint) (*model.StockTransaction, error)
	// List returns entries newest first.
	List(ctx context.Context, f TransactionFilter) ([]model.StockTransaction, error)
}

// Store bundles both stores behind one transactional boundary.
type Store interface {
	Medicines() MedicineStore
	Transactions() TransactionLedger

	// Atomically runs fn against a store whose writes either all commit or
	// all roll back. GetForUpdate inside fn serializes concurrent callers
	// touching the same medicine.
	Atomically(ctx context.Context, fn func(Store) error) error
}
