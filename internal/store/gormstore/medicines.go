package gormstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pharmacy-service/internal/apperr"
	"pharmacy-service/internal/model"
	"pharmacy-service/internal/store"
)

type medicineStore struct {
	db *gorm.DB
}

func (s *medicineStore) Get(ctx context.Context, id uint) (*model.Medicine, error) {
	var m model.Medicine
	err := s.db.WithContext(ctx).Preload("AddedBy").First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

// GetForUpdate takes a row-level write lock so concurrent stock mutations
// against the same medicine serialize at the database.
func (s *medicineStore) GetForUpdate(ctx context.Context, id uint) (*model.Medicine, error) {
	var m model.Medicine
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *medicineStore) FindByBarcode(ctx context.Context, code string) (*model.Medicine, error) {
	var m model.Medicine
	err := s.db.WithContext(ctx).Preload("AddedBy").
		Where("barcode = ?", code).First(&m).Error
	if err != nil {
		return nil, translate(err)
	}
	return &m, nil
}

func (s *medicineStore) List(ctx context.Context, f store.MedicineFilter) ([]model.Medicine, error) {
	q := s.db.WithContext(ctx).Model(&model.Medicine{}).Preload("AddedBy")

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where(
			"name ILIKE ? OR manufacturer ILIKE ? OR batch_number ILIKE ? OR barcode ILIKE ?",
			like, like, like, like,
		)
	}
	if f.LowStock {
		q = q.Where("quantity <= reorder_level")
	}
	if f.Expired {
		q = q.Where("expiry_date <= ?", time.Now())
	}

	var medicines []model.Medicine
	if err := q.Order("name ASC").Find(&medicines).Error; err != nil {
		return nil, translate(err)
	}
	return medicines, nil
}

func (s *medicineStore) Create(ctx context.Context, m *model.Medicine) error {
	if m.Barcode != nil {
		var count int64
		err := s.db.WithContext(ctx).Model(&model.Medicine{}).
			Where("barcode = ?", *m.Barcode).Count(&count).Error
		if err != nil {
			return translate(err)
		}
		if count > 0 {
			return fmt.Errorf("%w: medicine with this barcode already exists", apperr.ErrConflict)
		}
	}
	return translate(s.db.WithContext(ctx).Create(m).Error)
}

func (s *medicineStore) Update(ctx context.Context, id uint, u store.MedicineUpdate) (*model.Medicine, error) {
	fields := map[string]any{}
	if u.Name != nil {
		fields["name"] = *u.Name
	}
	if u.Manufacturer != nil {
		fields["manufacturer"] = *u.Manufacturer
	}
	if u.Category != nil {
		fields["category"] = *u.Category
	}
	if u.Description != nil {
		fields["description"] = *u.Description
	}
	if u.Price != nil {
		fields["price"] = *u.Price
	}
	if u.ExpiryDate != nil {
		fields["expiry_date"] = *u.ExpiryDate
	}
	if u.BatchNumber != nil {
		fields["batch_number"] = *u.BatchNumber
	}
	if u.ReorderLevel != nil {
		fields["reorder_level"] = *u.ReorderLevel
	}
	if u.Barcode != nil {
		fields["barcode"] = *u.Barcode
	}
	if u.Location != nil {
		fields["location"] = *u.Location
	}

	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&model.Medicine{}).
			Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, translate(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, apperr.ErrNotFound
		}
	}
	return s.Get(ctx, id)
}

func (s *medicineStore) SetQuantity(ctx context.Context, id uint, quantity int) error {
	res := s.db.WithContext(ctx).Model(&model.Medicine{}).
		Where("id = ?", id).Update("quantity", quantity)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// Delete soft-deletes the medicine. Ledger entries keep their reference and
// still resolve through the unscoped preload in the transaction ledger.
func (s *medicineStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Medicine{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
