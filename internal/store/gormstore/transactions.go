package gormstore

import (
	"context"

	"gorm.io/gorm"

	"pharmacy-service/internal/model"
	"pharmacy-service/internal/store"
)

type transactionLedger struct {
	db *gorm.DB
}

// Append inserts a ledger entry. The ledger has no update or delete path.
func (l *transactionLedger) Append(ctx context.Context, tx *model.StockTransaction) error {
	return translate(l.db.WithContext(ctx).Create(tx).Error)
}

func (l *transactionLedger) Get(ctx context.Context, id uint) (*model.StockTransaction, error) {
	var tx model.StockTransaction
	err := l.db.WithContext(ctx).
		Preload("Medicine", unscoped).
		Preload("PerformedBy").
		First(&tx, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &tx, nil
}

func (l *transactionLedger) List(ctx context.Context, f store.TransactionFilter) ([]model.StockTransaction, error) {
	q := l.db.WithContext(ctx).Model(&model.StockTransaction{}).
		Preload("Medicine", unscoped).
		Preload("PerformedBy")

	if f.MedicineID != 0 {
		q = q.Where("medicine_id = ?", f.MedicineID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Start != nil {
		q = q.Where("created_at >= ?", *f.Start)
	}
	if f.End != nil {
		q = q.Where("created_at <= ?", *f.End)
	}

	var txs []model.StockTransaction
	if err := q.Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, translate(err)
	}
	return txs, nil
}

// unscoped lets ledger entries resolve medicines that were soft-deleted
// after the transaction was recorded.
func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}
