package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vetvalidator/internal/model"
)

type OperationRepository struct {
	db *gorm.DB
}

func NewOperationRepository(db *gorm.DB) *OperationRepository {
	return &OperationRepository{db: db}
}

func (r *OperationRepository) Create(op *model.IndexingOperation) error {
	if err := r.db.Create(op).Error; err != nil {
		return fmt.Errorf("create indexing operation failed: %w", err)
	}
	return nil
}

func (r *OperationRepository) GetByRef(operationRef string) (*model.IndexingOperation, error) {
	var op model.IndexingOperation
	if err := r.db.Where("operation_ref = ?", operationRef).First(&op).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get indexing operation failed: %w", err)
	}
	return &op, nil
}

// AdvanceStatus moves an operation to a new status unless it already reached
// a terminal one. Returns false when nothing changed, which under
// at-least-once delivery means the notification was a duplicate.
func (r *OperationRepository) AdvanceStatus(operationRef string, status model.OperationStatus, errDetail string) (bool, error) {
	res := r.db.Model(&model.IndexingOperation{}).
		Where("operation_ref = ? AND status NOT IN ?", operationRef,
			[]model.OperationStatus{model.OperationCompleted, model.OperationFailed}).
		Updates(map[string]any{
			"status":       status,
			"error_detail": errDetail,
		})
	if res.Error != nil {
		return false, fmt.Errorf("advance indexing operation failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// AllCompleted reports whether the session has at least one operation and
// every one of them is completed.
func (r *OperationRepository) AllCompleted(sessionID uint) (bool, error) {
	var total, completed int64
	err := r.db.Model(&model.IndexingOperation{}).
		Where("session_id = ?", sessionID).Count(&total).Error
	if err != nil {
		return false, fmt.Errorf("count indexing operations failed: %w", err)
	}
	if total == 0 {
		return false, nil
	}
	err = r.db.Model(&model.IndexingOperation{}).
		Where("session_id = ? AND status = ?", sessionID, model.OperationCompleted).
		Count(&completed).Error
	if err != nil {
		return false, fmt.Errorf("count completed operations failed: %w", err)
	}
	return completed == total, nil
}
