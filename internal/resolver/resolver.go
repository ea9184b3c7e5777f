package resolver

import (
	"errors"
	"fmt"

	"vetvalidator/internal/model"
)

// ErrResolution means a backing-store query failed while loading a category.
// The resolver fails closed on it: a partially resolved requirement set would
// produce a validation that looks complete but is not.
var ErrResolution = errors.New("requirement resolution failed")

// RequirementSource supplies unit-specific requirement rows.
type RequirementSource interface {
	ListByUnitURL(category model.RequirementCategory, unitURL string) ([]model.UnitRequirement, error)
	ListByUnitCode(category model.RequirementCategory, unitCode string) ([]model.UnitRequirement, error)
}

// Resolver assembles the full requirement set for a unit: unit-specific
// categories via the URL-then-code lookup, plus the fixed unit-independent
// sets. For a fixed unit and fixed reference data the output is stable across
// calls.
type Resolver struct {
	source RequirementSource
}

func New(source RequirementSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve loads requirements for every unit-specific category and appends the
// fixed sets for the document type. The canonical URL wins; the unit code is
// consulted only when the URL query returns zero rows. A category that misses
// on both keys is excluded, never defaulted. A query error on either key
// aborts the whole resolution.
func (r *Resolver) Resolve(unitURL, unitCode, documentType string) ([]model.Requirement, error) {
	var out []model.Requirement

	for _, category := range model.UnitCategories {
		rows, err := r.source.ListByUnitURL(category, unitURL)
		if err != nil {
			return nil, fmt.Errorf("%w: category %s by url: %v", ErrResolution, category, err)
		}
		if len(rows) == 0 {
			rows, err = r.source.ListByUnitCode(category, unitCode)
			if err != nil {
				return nil, fmt.Errorf("%w: category %s by code: %v", ErrResolution, category, err)
			}
		}
		for i := range rows {
			out = append(out, model.Requirement{
				Category:      rows[i].Category,
				Number:        rows[i].Number,
				Text:          rows[i].Text,
				ParentElement: rows[i].ParentElement,
			})
		}
	}

	out = append(out, FixedRequirements(documentType)...)
	return out, nil
}
