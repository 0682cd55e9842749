package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/middleware"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/stock"
	"pharmacy-service/internal/store"
	"pharmacy-service/pkg/logger"
)

// TransactionHandler serves the stock transaction ledger surface.
type TransactionHandler struct {
	store store.Store
	stock *stock.Service
}

func NewTransactionHandler(st store.Store, sv *stock.Service) *TransactionHandler {
	return &TransactionHandler{store: st, stock: sv}
}

// TransactionRequest defines the structure for stock mutation requests
type TransactionRequest struct {
	MedicineID uint   `json:"medicine_id"`
	Type       string `json:"type"`
	Quantity   int    `json:"quantity"`
	Reason     string `json:"reason"`
}

// Create invokes the stock mutation service
func (h *TransactionHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req TransactionRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}
	if req.MedicineID == 0 || req.Type == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "medicine_id and type are required"})
	}

	userID, _ := middleware.UserIDFromContext(c)
	tx, _, err := h.stock.Apply(c.Request().Context(), stock.ApplyInput{
		MedicineID:  req.MedicineID,
		Type:        model.TransactionType(req.Type),
		Quantity:    req.Quantity,
		Reason:      req.Reason,
		PerformedBy: userID,
	})
	if err != nil {
		log.Warn("Stock mutation rejected",
			zap.Uint("medicine_id", req.MedicineID),
			zap.String("type", req.Type),
			zap.Int("quantity", req.Quantity),
			zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": err.Error()})
	}

	// Return the entry with its references resolved.
	populated, err := h.store.Transactions().Get(c.Request().Context(), tx.ID)
	if err == nil {
		tx = populated
	}
	return c.JSON(http.StatusCreated, tx)
}

// List handles retrieving ledger entries, newest first, with optional filters
func (h *TransactionHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	var f store.TransactionFilter
	if raw := c.QueryParam("medicineId"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid medicineId"})
		}
		f.MedicineID = id
	}
	if raw := c.QueryParam("type"); raw != "" {
		t := model.TransactionType(raw)
		if !t.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction type"})
		}
		f.Type = t
	}
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
		// Inclusive through the end of the given day.
		end = end.Add(24*time.Hour - time.Nanosecond)
		f.End = &end
	}

	txs, err := h.store.Transactions().List(c.Request().Context(), f)
	if err != nil {
		log.Error("Failed to list transactions", zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "failed to retrieve transactions"})
	}

	log.Info("Transactions retrieved", zap.Int("count", len(txs)))
	return c.JSON(http.StatusOK, txs)
}

// Get handles retrieving a single ledger entry by ID
func (h *TransactionHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid transaction id"})
	}

	tx, err := h.store.Transactions().Get(c.Request().Context(), id)
	if err != nil {
		log.Warn("Transaction not found", zap.Uint("transaction_id", id))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "transaction not found"})
	}
	return c.JSON(http.StatusOK, tx)
}
