// Package gormstore implements store.Store on top of GORM/postgres.
package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/store"
)

// Store wraps a *gorm.DB. Inside Atomically the wrapped handle is the
// transaction, so the same code paths serve both transactional and
// non-transactional reads.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Medicines() store.MedicineStore {
	return &medicineStore{db: s.db}
}

func (s *Store) Transactions() store.TransactionLedger {
	return &transactionLedger{db: s.db}
}

// Atomically runs fn inside a database transaction. A business-rule error
// from fn rolls everything back, so no partial state is ever visible.
func (s *Store) Atomically(ctx context.Context, fn func(store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// translate maps GORM errors onto the shared taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.ErrConflict
	default:
		return fmt.Errorf("%w: %v", apperr.ErrStorageUnavailable, err)
	}
}
