package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"vetvalidator/internal/model"
	"vetvalidator/internal/repository"
	"vetvalidator/internal/transport/http/response"
)

// RequirementHandler manages the unit-requirement reference tables the
// resolver reads from.
type RequirementHandler struct {
	requirements *repository.RequirementRepository
}

type RequirementRow struct {
	Category      string `json:"category" binding:"required"`
	Number        string `json:"number" binding:"required,max=16"`
	Text          string `json:"text" binding:"required"`
	ParentElement string `json:"parent_element"`
}

type ReplaceUnitRequirementsRequest struct {
	UnitURL      string           `json:"unit_url" binding:"required,max=512"`
	UnitCode     string           `json:"unit_code" binding:"required,max=32"`
	Requirements []RequirementRow `json:"requirements" binding:"required"`
}

func NewRequirementHandler(requirements *repository.RequirementRepository) *RequirementHandler {
	return &RequirementHandler{requirements: requirements}
}

// ReplaceUnit swaps a unit's whole criterion set in one call. Only the
// unit-specific categories are accepted; the fixed sets are not stored here.
func (h *RequirementHandler) ReplaceUnit(c *gin.Context) {
	var req ReplaceUnitRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	rows := make([]model.UnitRequirement, 0, len(req.Requirements))
	for _, in := range req.Requirements {
		category := model.RequirementCategory(strings.TrimSpace(in.Category))
		if !isUnitCategory(category) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest,
				"unknown unit requirement category: "+in.Category)
			return
		}
		rows = append(rows, model.UnitRequirement{
			Category:      category,
			Number:        strings.TrimSpace(in.Number),
			Text:          strings.TrimSpace(in.Text),
			ParentElement: strings.TrimSpace(in.ParentElement),
			UnitURL:       strings.TrimSpace(req.UnitURL),
			UnitCode:      strings.TrimSpace(req.UnitCode),
		})
	}

	if err := h.requirements.ReplaceForUnit(req.UnitURL, req.UnitCode, rows); err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "replace requirements failed")
		return
	}
	response.OK(c, gin.H{
		"unit_code":   req.UnitCode,
		"stored_rows": len(rows),
	})
}

func isUnitCategory(category model.RequirementCategory) bool {
	for _, c := range model.UnitCategories {
		if c == category {
			return true
		}
	}
	return false
}
