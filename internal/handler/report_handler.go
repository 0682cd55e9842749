package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/store"
	"pharmacy-service/pkg/logger"
	"pharmacy-service/prometheus"
)

// ReportHandler serves read-only aggregations over the medicine store and
// the transaction ledger. It never writes.
type ReportHandler struct {
	store store.Store
}

func NewReportHandler(st store.Store) *ReportHandler {
	return &ReportHandler{store: st}
}

// InventorySummary is the dashboard aggregate: stock totals plus per-type
// transaction counts over an optional date range.
type InventorySummary struct {
	TotalMedicines   int             `json:"total_medicines"`
	TotalUnits       int             `json:"total_units"`
	StockValue       decimal.Decimal `json:"stock_value"`
	LowStockCount    int             `json:"low_stock_count"`
	ExpiredCount     int             `json:"expired_count"`
	TransactionCount int             `json:"transaction_count"`
	TransactionsBy   map[string]int  `json:"transactions_by_type"`
}

// Inventory handles the inventory summary report
func (h *ReportHandler) Inventory(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	medicines, err := h.store.Medicines().List(ctx, store.MedicineFilter{})
	if err != nil {
		log.Error("Failed to load medicines for report", zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "failed to build report"})
	}

	summary := InventorySummary{
		StockValue:     decimal.Zero,
		TransactionsBy: make(map[string]int),
	}
	for _, m := range medicines {
		summary.TotalMedicines++
		summary.TotalUnits += m.Quantity
		summary.StockValue = summary.StockValue.Add(
			m.Price.Mul(decimal.NewFromInt(int64(m.Quantity))))
		if m.IsLowStock {
			summary.LowStockCount++
		}
		if m.IsExpired {
			summary.ExpiredCount++
		}
	}

	var f store.TransactionFilter
	if raw := c.QueryParam("startDate"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "startDate must be in YYYY-MM-DD format"})
		}
		f.Start = &start
	}
	if raw := c.QueryParam("endDate"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "endDate must be in YYYY-MM-DD format"})
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		f.End = &end
	}

	txs, err := h.store.Transactions().List(ctx, f)
	if err != nil {
		log.Error("Failed to load transactions for report", zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "failed to build report"})
	}
	summary.TransactionCount = len(txs)
	for _, t := range [...]model.TransactionType{
		model.TxStockIn, model.TxStockOut, model.TxAdjustment, model.TxExpired, model.TxReturn,
	} {
		summary.TransactionsBy[string(t)] = 0
	}
	for _, tx := range txs {
		summary.TransactionsBy[string(tx.Type)]++
	}

	prometheus.LowStockGauge.Set(float64(summary.LowStockCount))
	prometheus.ExpiredGauge.Set(float64(summary.ExpiredCount))

	log.Info("Inventory report built",
		zap.Int("medicines", summary.TotalMedicines),
		zap.Int("low_stock", summary.LowStockCount),
		zap.Int("expired", summary.ExpiredCount))
	return c.JSON(http.StatusOK, summary)
}
