package repository

import (
	"fmt"

	"gorm.io/gorm"

	"vetvalidator/internal/model"
)

type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// CreateSuperseding writes a new result row and, in the same transaction,
// marks any prior non-superseded row for the same (session, requirement) as
// superseded by it. Rows are never updated in place; revalidation history
// stays auditable.
func (r *ResultRepository) CreateSuperseding(result *model.ValidationResult) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var prior []model.ValidationResult
		err := tx.Where("session_id = ? AND requirement_key = ? AND superseded_by_id IS NULL",
			result.SessionID, result.RequirementKey).Find(&prior).Error
		if err != nil {
			return err
		}
		if err := tx.Create(result).Error; err != nil {
			return err
		}
		for i := range prior {
			err := tx.Model(&model.ValidationResult{}).
				Where("id = ?", prior[i].ID).
				Update("superseded_by_id", result.ID).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create superseding result failed: %w", err)
	}
	return nil
}

// ListActiveBySessionID returns the non-superseded result per requirement.
func (r *ResultRepository) ListActiveBySessionID(sessionID uint) ([]model.ValidationResult, error) {
	var list []model.ValidationResult
	err := r.db.Where("session_id = ? AND superseded_by_id IS NULL", sessionID).
		Order("requirement_key ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list active results failed: %w", err)
	}
	return list, nil
}

// ListBySessionID returns the full audit trail including superseded rows.
func (r *ResultRepository) ListBySessionID(sessionID uint) ([]model.ValidationResult, error) {
	var list []model.ValidationResult
	err := r.db.Where("session_id = ?", sessionID).
		Order("created_at ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list results failed: %w", err)
	}
	return list, nil
}

func (r *ResultRepository) CountActiveBySessionID(sessionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.ValidationResult{}).
		Where("session_id = ? AND superseded_by_id IS NULL", sessionID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count active results failed: %w", err)
	}
	return count, nil
}
