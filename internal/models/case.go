// internal/models/case.go
package models

import "strings"

// DefaultCategory is used when neither the request nor the stored case names one.
const DefaultCategory = "sonstige"

// ServiceCase is the read-only view of a case owned by the external case store.
type ServiceCase struct {
	ID              string `json:"id"`
	Category        string `json:"category"`
	PropertyAddress string `json:"property_address"`
	UnitDescriptor  string `json:"unit_descriptor"`
	Description     string `json:"description"`
}

// Document is the metadata of a case document used as prompt context.
type Document struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	DocType string `json:"doc_type"`
}

// CaseContext is a case merged with the request overrides for one call.
type CaseContext struct {
	CaseID          string
	Category        string
	PropertyAddress string
	UnitDescriptor  string
	Description     string
	Location        string
	Documents       []Document
}

// NewCaseContext merges request overrides over the stored case. Blank
// override values never replace stored ones.
func NewCaseContext(sc ServiceCase, req ScopeRequest) CaseContext {
	return CaseContext{
		CaseID:          sc.ID,
		Category:        firstNonBlank(req.Category, sc.Category, DefaultCategory),
		PropertyAddress: firstNonBlank(req.PropertyAddress, sc.PropertyAddress),
		UnitDescriptor:  firstNonBlank(req.UnitDescriptor, sc.UnitDescriptor),
		Description:     firstNonBlankVerbatim(req.Description, sc.Description),
		Location:        firstNonBlank(req.Location, sc.PropertyAddress),
	}
}

// Place renders address and unit descriptor for narratives, or "" when
// neither is known.
func (c CaseContext) Place() string {
	switch {
	case c.PropertyAddress != "" && c.UnitDescriptor != "":
		return c.PropertyAddress + ", " + c.UnitDescriptor
	case c.PropertyAddress != "":
		return c.PropertyAddress
	default:
		return c.UnitDescriptor
	}
}

// firstNonBlankVerbatim returns the first value that is not blank without
// trimming it.
func firstNonBlankVerbatim(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
