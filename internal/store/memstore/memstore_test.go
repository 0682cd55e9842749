package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/store"
	"pharmacy-service/internal/store/memstore"
)

func newMedicine(name string, category model.MedicineCategory, quantity int) *model.Medicine {
	return &model.Medicine{
		Name:         name,
		Manufacturer: "Acme Pharma",
		Category:     category,
		Price:        decimal.NewFromFloat(2.50),
		Quantity:     quantity,
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		BatchNumber:  "B-1",
		ReorderLevel: 10,
	}
}

func TestMedicines_ListFilters(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	tablet := newMedicine("Paracetamol", model.CategoryTablet, 100)
	syrup := newMedicine("Cough Syrup", model.CategorySyrup, 5)
	expired := newMedicine("Old Drops", model.CategoryDrops, 50)
	expired.ExpiryDate = time.Now().AddDate(0, -1, 0)

	for _, m := range []*model.Medicine{tablet, syrup, expired} {
		require.NoError(t, mem.Medicines().Create(ctx, m))
	}

	all, err := mem.Medicines().List(ctx, store.MedicineFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	// Sorted by name.
	assert.Equal(t, "Cough Syrup", all[0].Name)

	byCategory, err := mem.Medicines().List(ctx, store.MedicineFilter{Category: model.CategorySyrup})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Cough Syrup", byCategory[0].Name)

	low, err := mem.Medicines().List(ctx, store.MedicineFilter{LowStock: true})
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Cough Syrup", low[0].Name)
	assert.True(t, low[0].IsLowStock)

	exp, err := mem.Medicines().List(ctx, store.MedicineFilter{Expired: true})
	require.NoError(t, err)
	require.Len(t, exp, 1)
	assert.Equal(t, "Old Drops", exp[0].Name)
	assert.True(t, exp[0].IsExpired)

	search, err := mem.Medicines().List(ctx, store.MedicineFilter{Search: "parace"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "Paracetamol", search[0].Name)
}

func TestMedicines_BarcodeLookupAndConflict(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	code := "4710088412345"
	m := newMedicine("Loratadine", model.CategoryTablet, 20)
	m.Barcode = &code
	require.NoError(t, mem.Medicines().Create(ctx, m))

	found, err := mem.Medicines().FindByBarcode(ctx, code)
	require.NoError(t, err)
	assert.Equal(t, m.ID, found.ID)

	_, err = mem.Medicines().FindByBarcode(ctx, "0000000000000")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	dup := newMedicine("Loratadine Copy", model.CategoryTablet, 5)
	dup.Barcode = &code
	assert.ErrorIs(t, mem.Medicines().Create(ctx, dup), apperr.ErrConflict)
}

func TestMedicines_UpdateLeavesQuantityAlone(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	m := newMedicine("Ibuprofen", model.CategoryTablet, 42)
	require.NoError(t, mem.Medicines().Create(ctx, m))

	name := "Ibuprofen 400mg"
	level := 25
	updated, err := mem.Medicines().Update(ctx, m.ID, store.MedicineUpdate{
		Name:         &name,
		ReorderLevel: &level,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofen 400mg", updated.Name)
	assert.Equal(t, 25, updated.ReorderLevel)
	assert.Equal(t, 42, updated.Quantity)

	_, err = mem.Medicines().Update(ctx, 999, store.MedicineUpdate{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMedicines_SoftDeleteKeepsLedgerReference(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	m := newMedicine("Discontinued", model.CategoryCapsule, 10)
	require.NoError(t, mem.Medicines().Create(ctx, m))
	require.NoError(t, mem.Transactions().Append(ctx, &model.StockTransaction{
		MedicineID:      m.ID,
		Type:            model.TxStockIn,
		Quantity:        10,
		UpdatedQuantity: 10,
		PerformedByID:   1,
	}))

	require.NoError(t, mem.Medicines().Delete(ctx, m.ID))

	_, err := mem.Medicines().Get(ctx, m.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, mem.Medicines().Delete(ctx, m.ID), apperr.ErrNotFound)

	// Ledger entries still resolve the deleted medicine.
	txs, err := mem.Transactions().List(ctx, store.TransactionFilter{MedicineID: m.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Medicine)
	assert.Equal(t, "Discontinued", txs[0].Medicine.Name)
}

func TestLedger_ListOrderAndFilters(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	m := newMedicine("Amoxicillin", model.CategoryCapsule, 0)
	require.NoError(t, mem.Medicines().Create(ctx, m))

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entries := []model.StockTransaction{
		{MedicineID: m.ID, Type: model.TxStockIn, Quantity: 50, UpdatedQuantity: 50, PerformedByID: 1, CreatedAt: base},
		{MedicineID: m.ID, Type: model.TxStockOut, Quantity: 20, PreviousQuantity: 50, UpdatedQuantity: 30, PerformedByID: 1, CreatedAt: base.Add(time.Hour)},
		{MedicineID: m.ID, Type: model.TxReturn, Quantity: 5, PreviousQuantity: 30, UpdatedQuantity: 35, PerformedByID: 1, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range entries {
		require.NoError(t, mem.Transactions().Append(ctx, &entries[i]))
	}

	all, err := mem.Transactions().List(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.TxReturn, all[0].Type, "newest entry comes first")
	assert.Equal(t, model.TxStockIn, all[2].Type)

	outs, err := mem.Transactions().List(ctx, store.TransactionFilter{Type: model.TxStockOut})
	require.NoError(t, err)
	require.Len(t, outs, 1)
	assert.Equal(t, 20, outs[0].Quantity)

	start := base.Add(30 * time.Minute)
	end := base.Add(90 * time.Minute)
	ranged, err := mem.Transactions().List(ctx, store.TransactionFilter{Start: &start, End: &end})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, model.TxStockOut, ranged[0].Type)

	got, err := mem.Transactions().Get(ctx, entries[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.TxStockOut, got.Type)

	_, err = mem.Transactions().Get(ctx, 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAtomically_RollsBackOnError(t *testing.T) {
	mem := memstore.New()
	ctx := context.Background()

	m := newMedicine("Rollback", model.CategoryTablet, 30)
	require.NoError(t, mem.Medicines().Create(ctx, m))

	boom := errors.New("boom")
	err := mem.Atomically(ctx, func(st store.Store) error {
		if err := st.Medicines().SetQuantity(ctx, m.ID, 5); err != nil {
			return err
		}
		if err := st.Transactions().Append(ctx, &model.StockTransaction{
			MedicineID:      m.ID,
			Type:            model.TxStockOut,
			Quantity:        25,
			UpdatedQuantity: 5,
			PerformedByID:   1,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	current, err := mem.Medicines().Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, current.Quantity)

	txs, err := mem.Transactions().List(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	assert.Empty(t, txs)
}
