package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/middleware"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/stock"
	"pharmacy-service/internal/store"
	"pharmacy-service/pkg/logger"
)

const dateLayout = "2006-01-02"

// MedicineHandler serves the medicine CRUD surface. All quantity changes are
// routed through the stock service, never written directly.
type MedicineHandler struct {
	store store.Store
	stock *stock.Service
}

func NewMedicineHandler(st store.Store, sv *stock.Service) *MedicineHandler {
	return &MedicineHandler{store: st, stock: sv}
}

// MedicineRequest defines the structure for medicine creation requests
type MedicineRequest struct {
	Name         string          `json:"name"`
	Manufacturer string          `json:"manufacturer"`
	Category     string          `json:"category"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	ExpiryDate   string          `json:"expiry_date"`
	BatchNumber  string          `json:"batch_number"`
	ReorderLevel *int            `json:"reorder_level"`
	Barcode      string          `json:"barcode"`
	Location     string          `json:"location"`
}

// List handles retrieving all medicines with optional filtering
func (h *MedicineHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	f := store.MedicineFilter{
		Category: model.MedicineCategory(c.QueryParam("category")),
		Search:   c.QueryParam("search"),
		LowStock: c.QueryParam("lowStock") == "true",
		Expired:  c.QueryParam("expired") == "true",
	}
	if f.Category != "" && !f.Category.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}

	medicines, err := h.store.Medicines().List(c.Request().Context(), f)
	if err != nil {
		log.Error("Failed to list medicines", zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "failed to retrieve medicines"})
	}

	log.Info("Medicines retrieved", zap.Int("count", len(medicines)))
	return c.JSON(http.StatusOK, medicines)
}

// Get handles retrieving a single medicine by ID
func (h *MedicineHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid medicine id"})
	}

	medicine, err := h.store.Medicines().Get(c.Request().Context(), id)
	if err != nil {
		log.Warn("Medicine not found", zap.Uint("medicine_id", id), zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "medicine not found"})
	}
	return c.JSON(http.StatusOK, medicine)
}

// GetByBarcode handles looking a medicine up from a scanned barcode
func (h *MedicineHandler) GetByBarcode(c echo.Context) error {
	log := logger.FromContext(c)
	code := c.Param("barcode")

	medicine, err := h.store.Medicines().FindByBarcode(c.Request().Context(), code)
	if err != nil {
		log.Warn("No medicine for barcode", zap.String("barcode", code))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "medicine not found"})
	}
	return c.JSON(http.StatusOK, medicine)
}

// Create handles creating a new medicine together with its initial stock-in
// transaction.
func (h *MedicineHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req MedicineRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	if req.Name == "" || req.Manufacturer == "" || req.BatchNumber == "" || req.ExpiryDate == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, manufacturer, batch_number and expiry_date are required"})
	}
	expiry, err := time.Parse(dateLayout, req.ExpiryDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry_date must be in YYYY-MM-DD format"})
	}

	reorderLevel := 10
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reorder_level must not be negative"})
		}
		reorderLevel = *req.ReorderLevel
	}

	userID, _ := middleware.UserIDFromContext(c)
	medicine := &model.Medicine{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Category:     model.MedicineCategory(req.Category),
		Description:  req.Description,
		Price:        req.Price,
		Quantity:     req.Quantity,
		ExpiryDate:   expiry,
		BatchNumber:  req.BatchNumber,
		ReorderLevel: reorderLevel,
		Location:     req.Location,
		AddedByID:    userID,
	}
	if req.Barcode != "" {
		medicine.Barcode = &req.Barcode
	}

	created, err := h.stock.CreateMedicine(c.Request().Context(), medicine, userID)
	if err != nil {
		log.Error("Failed to create medicine",
			zap.String("name", req.Name),
			zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": err.Error()})
	}

	log.Info("Medicine created",
		zap.Uint("medicine_id", created.ID),
		zap.String("name", created.Name),
		zap.Int("quantity", created.Quantity))
	return c.JSON(http.StatusCreated, created)
}

// MedicineUpdateRequest defines the structure for medicine update requests.
// A quantity value is not applied as a field write; the difference from the
// current quantity is recorded through the stock service.
type MedicineUpdateRequest struct {
	Name         *string          `json:"name"`
	Manufacturer *string          `json:"manufacturer"`
	Category     *string          `json:"category"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
	Quantity     *int             `json:"quantity"`
	ExpiryDate   *string          `json:"expiry_date"`
	BatchNumber  *string          `json:"batch_number"`
	ReorderLevel *int             `json:"reorder_level"`
	Barcode      *string          `json:"barcode"`
	Location     *string          `json:"location"`
	Reason       string           `json:"reason"`
}

// Update handles editing medicine fields
func (h *MedicineHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid medicine id"})
	}

	var req MedicineUpdateRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	u := store.MedicineUpdate{
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Description:  req.Description,
		BatchNumber:  req.BatchNumber,
		Barcode:      req.Barcode,
		Location:     req.Location,
	}
	if req.Category != nil {
		cat := model.MedicineCategory(*req.Category)
		if !cat.Valid() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
		}
		u.Category = &cat
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
		}
		u.Price = req.Price
	}
	if req.ExpiryDate != nil {
		expiry, err := time.Parse(dateLayout, *req.ExpiryDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiry_date must be in YYYY-MM-DD format"})
		}
		u.ExpiryDate = &expiry
	}
	if req.ReorderLevel != nil {
		if *req.ReorderLevel < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reorder_level must not be negative"})
		}
		u.ReorderLevel = req.ReorderLevel
	}

	ctx := c.Request().Context()
	medicine, err := h.store.Medicines().Update(ctx, id, u)
	if err != nil {
		log.Error("Failed to update medicine", zap.Uint("medicine_id", id), zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": err.Error()})
	}

	// An implied quantity change goes through the ledger, not a field write.
	if req.Quantity != nil && *req.Quantity != medicine.Quantity {
		userID, _ := middleware.UserIDFromContext(c)
		delta := *req.Quantity - medicine.Quantity
		in := stock.ApplyInput{
			MedicineID:  id,
			Type:        model.TxStockIn,
			Quantity:    delta,
			Reason:      req.Reason,
			PerformedBy: userID,
		}
		if delta < 0 {
			in.Type = model.TxStockOut
			in.Quantity = -delta
		}
		if in.Reason == "" {
			in.Reason = "Stock adjustment"
		}
		if _, medicine, err = h.stock.Apply(ctx, in); err != nil {
			log.Error("Failed to record quantity change",
				zap.Uint("medicine_id", id),
				zap.Int("requested_quantity", *req.Quantity),
				zap.Error(err))
			return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": err.Error()})
		}
	}

	log.Info("Medicine updated", zap.Uint("medicine_id", id))
	return c.JSON(http.StatusOK, medicine)
}

// Delete handles removing a medicine (soft delete; ledger history stays)
func (h *MedicineHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid medicine id"})
	}

	if err := h.store.Medicines().Delete(c.Request().Context(), id); err != nil {
		log.Error("Failed to delete medicine", zap.Uint("medicine_id", id), zap.Error(err))
		return c.JSON(apperr.HTTPStatus(err), echo.Map{"error": "medicine not found"})
	}

	log.Info("Medicine deleted", zap.Uint("medicine_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "medicine removed"})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
