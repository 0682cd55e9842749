// Package memstore is an in-memory store.Store used by tests and local
// development. Atomically serializes on a single mutex and restores a
// snapshot when the callback fails, mirroring the rollback semantics of the
// postgres implementation.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/store"
)

type Memory struct {
	mu                sync.Mutex
	medicines         map[uint]model.Medicine
	transactions      map[uint]model.StockTransaction
	nextMedicineID    uint
	nextTransactionID uint
}

func New() *Memory {
	return &Memory{
		medicines:         make(map[uint]model.Medicine),
		transactions:      make(map[uint]model.StockTransaction),
		nextMedicineID:    1,
		nextTransactionID: 1,
	}
}

func (m *Memory) Medicines() store.MedicineStore {
	return &medicines{m: m}
}

func (m *Memory) Transactions() store.TransactionLedger {
	return &ledger{m: m}
}

// Atomically holds the store lock for the whole callback, so concurrent
// mutations of the same medicine cannot interleave. On error the snapshot
// taken at entry is restored.
func (m *Memory) Atomically(_ context.Context, fn func(store.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meds := maps.Clone(m.medicines)
	txs := maps.Clone(m.transactions)
	nextMed, nextTx := m.nextMedicineID, m.nextTransactionID

	view := &txView{m: m}
	if err := fn(view); err != nil {
		m.medicines = meds
		m.transactions = txs
		m.nextMedicineID, m.nextTransactionID = nextMed, nextTx
		return err
	}
	return nil
}

// txView exposes the store without re-locking; only handed out by Atomically.
type txView struct {
	m *Memory
}

func (v *txView) Medicines() store.MedicineStore {
	return &medicines{m: v.m, held: true}
}

func (v *txView) Transactions() store.TransactionLedger {
	return &ledger{m: v.m, held: true}
}

func (v *txView) Atomically(ctx context.Context, fn func(store.Store) error) error {
	// Already inside the transaction scope.
	return fn(v)
}

type medicines struct {
	m    *Memory
	held bool
}

func (s *medicines) with(fn func() error) error {
	if !s.held {
		s.m.mu.Lock()
		defer s.m.mu.Unlock()
	}
	return fn()
}

func (s *medicines) getLocked(id uint) (*model.Medicine, error) {
	m, ok := s.m.medicines[id]
	if !ok || m.DeletedAt.Valid {
		return nil, apperr.ErrNotFound
	}
	out := m
	out.Refresh(time.Now())
	return &out, nil
}

func (s *medicines) Get(_ context.Context, id uint) (*model.Medicine, error) {
	var out *model.Medicine
	err := s.with(func() error {
		var err error
		out, err = s.getLocked(id)
		return err
	})
	return out, err
}

func (s *medicines) GetForUpdate(ctx context.Context, id uint) (*model.Medicine, error) {
	// The Atomically mutex already serializes writers.
	return s.Get(ctx, id)
}

func (s *medicines) FindByBarcode(_ context.Context, code string) (*model.Medicine, error) {
	var out *model.Medicine
	err := s.with(func() error {
		for _, m := range s.m.medicines {
			if m.DeletedAt.Valid || m.Barcode == nil || *m.Barcode != code {
				continue
			}
			c := m
			c.Refresh(time.Now())
			out = &c
			return nil
		}
		return apperr.ErrNotFound
	})
	return out, err
}

func matches(m model.Medicine, f store.MedicineFilter, now time.Time) bool {
	if m.DeletedAt.Valid {
		return false
	}
	if f.Category != "" && m.Category != f.Category {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		barcode := ""
		if m.Barcode != nil {
			barcode = *m.Barcode
		}
		hit := false
		for _, field := range []string{m.Name, m.Manufacturer, m.BatchNumber, barcode} {
			if strings.Contains(strings.ToLower(field), needle) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.LowStock && m.Quantity > m.ReorderLevel {
		return false
	}
	if f.Expired && m.ExpiryDate.After(now) {
		return false
	}
	return true
}

func (s *medicines) List(_ context.Context, f store.MedicineFilter) ([]model.Medicine, error) {
	var out []model.Medicine
	err := s.with(func() error {
		now := time.Now()
		for _, m := range s.m.medicines {
			if matches(m, f, now) {
				c := m
				c.Refresh(now)
				out = append(out, c)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return nil
	})
	return out, err
}

func (s *medicines) Create(_ context.Context, m *model.Medicine) error {
	return s.with(func() error {
		if m.Barcode != nil {
			for _, existing := range s.m.medicines {
				if existing.Barcode != nil && *existing.Barcode == *m.Barcode {
					return fmt.Errorf("%w: medicine with this barcode already exists", apperr.ErrConflict)
				}
			}
		}
		now := time.Now()
		m.ID = s.m.nextMedicineID
		s.m.nextMedicineID++
		m.CreatedAt = now
		m.UpdatedAt = now
		m.Refresh(now)
		s.m.medicines[m.ID] = *m
		return nil
	})
}

func (s *medicines) Update(_ context.Context, id uint, u store.MedicineUpdate) (*model.Medicine, error) {
	var out *model.Medicine
	err := s.with(func() error {
		m, ok := s.m.medicines[id]
		if !ok || m.DeletedAt.Valid {
			return apperr.ErrNotFound
		}
		if u.Name != nil {
			m.Name = *u.Name
		}
		if u.Manufacturer != nil {
			m.Manufacturer = *u.Manufacturer
		}
		if u.Category != nil {
			m.Category = *u.Category
		}
		if u.Description != nil {
			m.Description = *u.Description
		}
		if u.Price != nil {
			m.Price = *u.Price
		}
		if u.ExpiryDate != nil {
			m.ExpiryDate = *u.ExpiryDate
		}
		if u.BatchNumber != nil {
			m.BatchNumber = *u.BatchNumber
		}
		if u.ReorderLevel != nil {
			m.ReorderLevel = *u.ReorderLevel
		}
		if u.Barcode != nil {
			code := *u.Barcode
			for otherID, other := range s.m.medicines {
				if otherID != id && other.Barcode != nil && *other.Barcode == code {
					return fmt.Errorf("%w: medicine with this barcode already exists", apperr.ErrConflict)
				}
			}
			m.Barcode = &code
		}
		if u.Location != nil {
			m.Location = *u.Location
		}
		m.UpdatedAt = time.Now()
		s.m.medicines[id] = m
		c := m
		c.Refresh(time.Now())
		out = &c
		return nil
	})
	return out, err
}

func (s *medicines) SetQuantity(_ context.Context, id uint, quantity int) error {
	return s.with(func() error {
		m, ok := s.m.medicines[id]
		if !ok || m.DeletedAt.Valid {
			return apperr.ErrNotFound
		}
		m.Quantity = quantity
		m.UpdatedAt = time.Now()
		s.m.medicines[id] = m
		return nil
	})
}

func (s *medicines) Delete(_ context.Context, id uint) error {
	return s.with(func() error {
		m, ok := s.m.medicines[id]
		if !ok || m.DeletedAt.Valid {
			return apperr.ErrNotFound
		}
		m.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
		s.m.medicines[id] = m
		return nil
	})
}

type ledger struct {
	m    *Memory
	held bool
}

func (l *ledger) with(fn func() error) error {
	if !l.held {
		l.m.mu.Lock()
		defer l.m.mu.Unlock()
	}
	return fn()
}

func (l *ledger) Append(_ context.Context, tx *model.StockTransaction) error {
	return l.with(func() error {
		tx.ID = l.m.nextTransactionID
		l.m.nextTransactionID++
		if tx.CreatedAt.IsZero() {
			tx.CreatedAt = time.Now()
		}
		l.m.transactions[tx.ID] = *tx
		return nil
	})
}

func (l *ledger) Get(_ context.Context, id uint) (*model.StockTransaction, error) {
	var out *model.StockTransaction
	err := l.with(func() error {
		tx, ok := l.m.transactions[id]
		if !ok {
			return apperr.ErrNotFound
		}
		c := tx
		l.populateLocked(&c)
		out = &c
		return nil
	})
	return out, err
}

func (l *ledger) List(_ context.Context, f store.TransactionFilter) ([]model.StockTransaction, error) {
	var out []model.StockTransaction
	err := l.with(func() error {
		for _, tx := range l.m.transactions {
			if f.MedicineID != 0 && tx.MedicineID != f.MedicineID {
				continue
			}
			if f.Type != "" && tx.Type != f.Type {
				continue
			}
			if f.Start != nil && tx.CreatedAt.Before(*f.Start) {
				continue
			}
			if f.End != nil && tx.CreatedAt.After(*f.End) {
				continue
			}
			c := tx
			l.populateLocked(&c)
			out = append(out, c)
		}
		// Newest first; ID breaks ties for entries created in the same instant.
		sort.Slice(out, func(i, j int) bool {
			if out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].ID > out[j].ID
			}
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		return nil
	})
	return out, err
}

// populateLocked resolves the medicine reference, including soft-deleted
// rows, matching the unscoped preload of the postgres ledger.
func (l *ledger) populateLocked(tx *model.StockTransaction) {
	if m, ok := l.m.medicines[tx.MedicineID]; ok {
		c := m
		c.Refresh(time.Now())
		tx.Medicine = &c
	}
}
