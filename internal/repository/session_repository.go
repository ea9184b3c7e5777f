package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vetvalidator/internal/model"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(session *model.ValidationSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create session failed: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(id uint) (*model.ValidationSession, error) {
	var session model.ValidationSession
	if err := r.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session failed: %w", err)
	}
	return &session, nil
}

func (r *SessionRepository) List(limit int) ([]model.ValidationSession, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	var list []model.ValidationSession
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list sessions failed: %w", err)
	}
	return list, nil
}

// CompareAndSwapStatus transitions a session from one exact status to another
// in a single conditional UPDATE. It returns false when the session was not
// in the expected status, which is how the pipeline enforces exactly-once
// advancement under concurrent or duplicate notifications.
func (r *SessionRepository) CompareAndSwapStatus(id uint, from, to model.SessionStatus) (bool, error) {
	res := r.db.Model(&model.ValidationSession{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, fmt.Errorf("cas session status failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed records the failure cause and moves the session to failed unless
// it already reached a terminal state.
func (r *SessionRepository) MarkFailed(id uint, detail string) (bool, error) {
	res := r.db.Model(&model.ValidationSession{}).
		Where("id = ? AND status NOT IN ?", id, []model.SessionStatus{model.SessionValidated, model.SessionCancelled}).
		Updates(map[string]any{
			"status":       model.SessionFailed,
			"error_detail": detail,
		})
	if res.Error != nil {
		return false, fmt.Errorf("mark session failed failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// MarkCancelled cancels a session from any non-terminal state.
func (r *SessionRepository) MarkCancelled(id uint) (bool, error) {
	res := r.db.Model(&model.ValidationSession{}).
		Where("id = ? AND status NOT IN ?", id, []model.SessionStatus{model.SessionValidated, model.SessionCancelled}).
		Update("status", model.SessionCancelled)
	if res.Error != nil {
		return false, fmt.Errorf("mark session cancelled failed: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// BeginRevalidation bumps the attempt generation and re-enters validating.
// Allowed only from failed or validated.
func (r *SessionRepository) BeginRevalidation(id uint) (*model.ValidationSession, error) {
	res := r.db.Model(&model.ValidationSession{}).
		Where("id = ? AND status IN ?", id, []model.SessionStatus{model.SessionFailed, model.SessionValidated}).
		Updates(map[string]any{
			"status":       model.SessionValidating,
			"error_detail": "",
			"generation":   gorm.Expr("generation + 1"),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("begin revalidation failed: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(id)
}
