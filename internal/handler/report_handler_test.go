package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacy-service/internal/handler"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/stock"
	"pharmacy-service/internal/store/memstore"
)

func TestReportHandler_Inventory(t *testing.T) {
	mem := memstore.New()
	svc := stock.New(mem, zap.NewNop())
	h := handler.NewReportHandler(mem)
	ctx := context.Background()

	// 100 tablets at 3.20 plus 5 syrups at 3.20, the syrup below its
	// reorder level.
	tablets := seedHandlerMedicine(t, svc, "Paracetamol", 100)
	_, err := svc.CreateMedicine(ctx, &model.Medicine{
		Name:         "Cough Syrup",
		Manufacturer: "Acme Pharma",
		Category:     model.CategorySyrup,
		Price:        mustDecimal("3.20"),
		Quantity:     5,
		ExpiryDate:   time.Now().AddDate(0, -1, 0),
		BatchNumber:  "B-2",
		ReorderLevel: 10,
	}, 1)
	require.NoError(t, err)

	_, _, err = svc.Apply(ctx, stock.ApplyInput{
		MedicineID: tablets.ID, Type: model.TxStockOut, Quantity: 20, PerformedBy: 1,
	})
	require.NoError(t, err)

	c, rec := newContext(t, http.MethodGet, "/api/reports/inventory", nil)
	require.NoError(t, h.Inventory(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var summary handler.InventorySummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.TotalMedicines)
	assert.Equal(t, 85, summary.TotalUnits)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.Equal(t, 1, summary.ExpiredCount)
	assert.Equal(t, 3, summary.TransactionCount)
	assert.Equal(t, 2, summary.TransactionsBy["stock-in"])
	assert.Equal(t, 1, summary.TransactionsBy["stock-out"])
	assert.Equal(t, 0, summary.TransactionsBy["return"])

	// Quantity times price across both medicines.
	expectedValue := mustDecimal("3.20").Mul(mustDecimal("85"))
	assert.True(t, summary.StockValue.Equal(expectedValue),
		"stock value %s, want %s", summary.StockValue, expectedValue)

	// A date window in the past matches no ledger entries.
	c, rec = newContext(t, http.MethodGet, "/api/reports/inventory?startDate=2020-01-01&endDate=2020-01-31", nil)
	require.NoError(t, h.Inventory(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 0, summary.TransactionCount)

	c, rec = newContext(t, http.MethodGet, "/api/reports/inventory?startDate=bad", nil)
	require.NoError(t, h.Inventory(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
