package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vetvalidator/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListBySessionID(sessionID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// SetIndexing records the store reference once indexing starts.
func (r *DocumentRepository) SetIndexing(id uint, storeRef string) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":    model.DocumentIndexing,
			"store_ref": storeRef,
		}).Error
	if err != nil {
		return fmt.Errorf("set document indexing failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) SetStatus(id uint, status model.DocumentStatus) error {
	err := r.db.Model(&model.Document{}).Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("set document status failed: %w", err)
	}
	return nil
}
