package repository

import (
	"fmt"

	"gorm.io/gorm"

	"vetvalidator/internal/model"
)

// RequirementRepository reads the unit-requirement reference tables. Rows are
// keyed primarily by the unit's canonical URL and secondarily by its code;
// the resolver owns the fallback ordering.
type RequirementRepository struct {
	db *gorm.DB
}

func NewRequirementRepository(db *gorm.DB) *RequirementRepository {
	return &RequirementRepository{db: db}
}

func (r *RequirementRepository) ListByUnitURL(category model.RequirementCategory, unitURL string) ([]model.UnitRequirement, error) {
	var list []model.UnitRequirement
	err := r.db.Where("category = ? AND unit_url = ?", category, unitURL).
		Order("number ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list requirements by unit url failed: %w", err)
	}
	return list, nil
}

func (r *RequirementRepository) ListByUnitCode(category model.RequirementCategory, unitCode string) ([]model.UnitRequirement, error) {
	var list []model.UnitRequirement
	err := r.db.Where("category = ? AND unit_code = ?", category, unitCode).
		Order("number ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list requirements by unit code failed: %w", err)
	}
	return list, nil
}

// ReplaceForUnit swaps out every requirement row for a unit in one
// transaction. Loads are whole-unit: partial updates would leave the resolver
// mixing criterion sets from different source versions.
func (r *RequirementRepository) ReplaceForUnit(unitURL, unitCode string, rows []model.UnitRequirement) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("unit_url = ? OR unit_code = ?", unitURL, unitCode).
			Delete(&model.UnitRequirement{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("replace unit requirements failed: %w", err)
	}
	return nil
}
