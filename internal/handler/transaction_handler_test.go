package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pharmacy-service/internal/handler"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/stock"
	"pharmacy-service/internal/store/memstore"
)

func newTransactionHandler(t *testing.T) (*handler.TransactionHandler, *stock.Service, *memstore.Memory) {
	t.Helper()
	mem := memstore.New()
	svc := stock.New(mem, zap.NewNop())
	return handler.NewTransactionHandler(mem, svc), svc, mem
}

func seedHandlerMedicine(t *testing.T, svc *stock.Service, name string, quantity int) *model.Medicine {
	t.Helper()
	created, err := svc.CreateMedicine(context.Background(), &model.Medicine{
		Name:         name,
		Manufacturer: "Acme Pharma",
		Category:     model.CategoryTablet,
		Price:        decimal.NewFromInt(5),
		Quantity:     quantity,
		ExpiryDate:   time.Now().AddDate(1, 0, 0),
		BatchNumber:  "B-1",
		ReorderLevel: 10,
	}, 1)
	require.NoError(t, err)
	return created
}

func TestTransactionHandler_Create(t *testing.T) {
	h, svc, _ := newTransactionHandler(t)
	med := seedHandlerMedicine(t, svc, "Paracetamol", 150)

	c, rec := newContext(t, http.MethodPost, "/api/medicines/transaction", handler.TransactionRequest{
		MedicineID: med.ID,
		Type:       "stock-out",
		Quantity:   100,
		Reason:     "dispensed",
	})
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var tx model.StockTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tx))
	assert.Equal(t, model.TxStockOut, tx.Type)
	assert.Equal(t, 150, tx.PreviousQuantity)
	assert.Equal(t, 50, tx.UpdatedQuantity)
	assert.Equal(t, uint(1), tx.PerformedByID)
	require.NotNil(t, tx.Medicine)
	assert.Equal(t, "Paracetamol", tx.Medicine.Name)
}

func TestTransactionHandler_CreateRejections(t *testing.T) {
	h, svc, mem := newTransactionHandler(t)
	med := seedHandlerMedicine(t, svc, "Insulin", 20)

	tests := []struct {
		name string
		req  handler.TransactionRequest
		code int
	}{
		{
			name: "insufficient stock",
			req:  handler.TransactionRequest{MedicineID: med.ID, Type: "stock-out", Quantity: 21},
			code: http.StatusBadRequest,
		},
		{
			name: "unknown type",
			req:  handler.TransactionRequest{MedicineID: med.ID, Type: "theft", Quantity: 1},
			code: http.StatusBadRequest,
		},
		{
			name: "zero quantity",
			req:  handler.TransactionRequest{MedicineID: med.ID, Type: "stock-in", Quantity: 0},
			code: http.StatusBadRequest,
		},
		{
			name: "missing medicine",
			req:  handler.TransactionRequest{MedicineID: 999, Type: "stock-in", Quantity: 5},
			code: http.StatusNotFound,
		},
		{
			name: "missing required fields",
			req:  handler.TransactionRequest{Quantity: 5},
			code: http.StatusBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(t, http.MethodPost, "/api/medicines/transaction", tc.req)
			require.NoError(t, h.Create(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}

	// None of the rejected mutations touched the stock.
	current, err := mem.Medicines().Get(context.Background(), med.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, current.Quantity)
}

func TestTransactionHandler_List(t *testing.T) {
	h, svc, _ := newTransactionHandler(t)
	first := seedHandlerMedicine(t, svc, "Amoxicillin", 50)
	second := seedHandlerMedicine(t, svc, "Cetirizine", 30)

	_, _, err := svc.Apply(context.Background(), stock.ApplyInput{
		MedicineID: first.ID, Type: model.TxStockOut, Quantity: 10, PerformedBy: 1,
	})
	require.NoError(t, err)

	c, rec := newContext(t, http.MethodGet, "/api/medicines/transactions/all", nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var all []model.StockTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)
	assert.Equal(t, model.TxStockOut, all[0].Type, "newest first")

	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/all?medicineId=2", nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var filtered []model.StockTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	require.Len(t, filtered, 1)
	assert.Equal(t, second.ID, filtered[0].MedicineID)

	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/all?type=stock-out", nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filtered))
	assert.Len(t, filtered, 1)

	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/all?type=theft", nil)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/all?startDate=bad", nil)
	require.NoError(t, h.List(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A range covering today includes entries created this instant: the end
	// date is inclusive through end of day.
	today := time.Now().Format("2006-01-02")
	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/all?startDate="+today+"&endDate="+today, nil)
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 3)
}

func TestTransactionHandler_Get(t *testing.T) {
	h, svc, _ := newTransactionHandler(t)
	med := seedHandlerMedicine(t, svc, "Losartan", 40)

	tx, _, err := svc.Apply(context.Background(), stock.ApplyInput{
		MedicineID: med.ID, Type: model.TxReturn, Quantity: 5, PerformedBy: 1,
	})
	require.NoError(t, err)

	c, rec := newContext(t, http.MethodGet, "/api/medicines/transactions/2", nil)
	c.SetParamNames("id")
	c.SetParamValues("2")
	require.NoError(t, h.Get(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.StockTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, model.TxReturn, got.Type)

	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/99", nil)
	c.SetParamNames("id")
	c.SetParamValues("99")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newContext(t, http.MethodGet, "/api/medicines/transactions/abc", nil)
	c.SetParamNames("id")
	c.SetParamValues("abc")
	require.NoError(t, h.Get(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
