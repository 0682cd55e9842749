// Package stock implements the stock mutation service: the sole writer of
// Medicine.Quantity. Every quantity change is recorded as exactly one ledger
// entry, applied together with the quantity update inside one transactional
// scope.
package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/store"
	"pharmacy-service/prometheus"
)

type Service struct {
	store store.Store
	log   *zap.Logger
}

func New(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log}
}

// ApplyInput describes one stock mutation. For stock-in, stock-out, expired
// and return, Quantity is the magnitude of the change and must be positive.
// For adjustment it is the new absolute quantity and must be non-negative.
type ApplyInput struct {
	MedicineID  uint
	Type        model.TransactionType
	Quantity    int
	Reason      string
	PerformedBy uint
}

// Apply validates the mutation, computes the new quantity, appends the
// ledger entry and updates the medicine, all-or-nothing. Concurrent calls
// against the same medicine serialize on the store's row lock, so two
// callers can never both read the same previous quantity.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*model.StockTransaction, *model.Medicine, error) {
	if err := validate(in); err != nil {
		prometheus.RecordStockRejection("invalid_argument")
		return nil, nil, err
	}

	var (
		med *model.Medicine
		tx  *model.StockTransaction
	)
	err := s.store.Atomically(ctx, func(st store.Store) error {
		m, err := st.Medicines().GetForUpdate(ctx, in.MedicineID)
		if err != nil {
			return err
		}

		previous := m.Quantity
		updated, err := nextQuantity(m, in.Type, in.Quantity)
		if err != nil {
			return err
		}

		if err := st.Medicines().SetQuantity(ctx, m.ID, updated); err != nil {
			return err
		}

		entry := &model.StockTransaction{
			MedicineID:       m.ID,
			Type:             in.Type,
			Quantity:         in.Quantity,
			PreviousQuantity: previous,
			UpdatedQuantity:  updated,
			Reason:           in.Reason,
			PerformedByID:    in.PerformedBy,
			CreatedAt:        time.Now(),
		}
		if err := st.Transactions().Append(ctx, entry); err != nil {
			return err
		}

		m.Quantity = updated
		m.UpdatedAt = entry.CreatedAt
		m.Refresh(entry.CreatedAt)
		med, tx = m, entry
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrInsufficientStock):
			prometheus.RecordStockRejection("insufficient_stock")
		case errors.Is(err, apperr.ErrNotFound):
			prometheus.RecordStockRejection("not_found")
		}
		return nil, nil, err
	}

	prometheus.RecordStockTransaction(string(in.Type))
	s.log.Info("stock transaction recorded",
		zap.Uint("medicine_id", med.ID),
		zap.String("type", string(tx.Type)),
		zap.Int("quantity", tx.Quantity),
		zap.Int("previous_quantity", tx.PreviousQuantity),
		zap.Int("updated_quantity", tx.UpdatedQuantity),
		zap.Uint("performed_by", in.PerformedBy))
	return tx, med, nil
}

// CreateMedicine persists a new medicine together with its initial stock-in
// transaction as one unit. A medicine created with zero stock gets no ledger
// entry; its first stock-in arrives through Apply.
func (s *Service) CreateMedicine(ctx context.Context, m *model.Medicine, performedBy uint) (*model.Medicine, error) {
	if !m.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrInvalidArgument, m.Category)
	}
	if m.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", apperr.ErrInvalidArgument)
	}
	if m.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", apperr.ErrInvalidArgument)
	}

	err := s.store.Atomically(ctx, func(st store.Store) error {
		if err := st.Medicines().Create(ctx, m); err != nil {
			return err
		}
		if m.Quantity == 0 {
			return nil
		}
		entry := &model.StockTransaction{
			MedicineID:       m.ID,
			Type:             model.TxStockIn,
			Quantity:         m.Quantity,
			PreviousQuantity: 0,
			UpdatedQuantity:  m.Quantity,
			Reason:           "Initial stock",
			PerformedByID:    performedBy,
			CreatedAt:        time.Now(),
		}
		return st.Transactions().Append(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if m.Quantity > 0 {
		prometheus.RecordStockTransaction(string(model.TxStockIn))
	}
	s.log.Info("medicine created",
		zap.Uint("medicine_id", m.ID),
		zap.String("name", m.Name),
		zap.Int("initial_quantity", m.Quantity),
		zap.Uint("added_by", performedBy))
	return m, nil
}

func validate(in ApplyInput) error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", apperr.ErrInvalidArgument, in.Type)
	}
	if in.Type == model.TxAdjustment {
		if in.Quantity < 0 {
			return fmt.Errorf("%w: adjustment quantity must not be negative", apperr.ErrInvalidArgument)
		}
		return nil
	}
	if in.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", apperr.ErrInvalidArgument)
	}
	return nil
}

// nextQuantity applies the transition rule for one transaction type.
// Withdrawals beyond the available quantity fail; adjustment sets the
// absolute value and is bounded below only by zero.
func nextQuantity(m *model.Medicine, t model.TransactionType, quantity int) (int, error) {
	switch t {
	case model.TxStockIn, model.TxReturn:
		return m.Quantity + quantity, nil
	case model.TxStockOut, model.TxExpired:
		if quantity > m.Quantity {
			return 0, &apperr.InsufficientStockError{
				MedicineID: m.ID,
				Available:  m.Quantity,
				Requested:  quantity,
			}
		}
		return m.Quantity - quantity, nil
	case model.TxAdjustment:
		return quantity, nil
	default:
		return 0, fmt.Errorf("%w: unknown transaction type %q", apperr.ErrInvalidArgument, t)
	}
}
