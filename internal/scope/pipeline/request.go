package pipeline

import (
	"encoding/json"
	"strings"

	apperrors "renovation-scope/internal/common/errors"
	"renovation-scope/internal/common/validation"
	"renovation-scope/internal/models"
	"renovation-scope/internal/scope/money"
	"renovation-scope/internal/scope/shape"
)

// Older callers send these names.
var requestAliases = map[string]string{
	"service_case_id": "case_id",
	"unit_info":       "unit_descriptor",
}

// GetRequestSchema describes the request body of every surface. Presence
// rules that depend on the action are checked by the dispatcher so their
// messages stay stable.
func GetRequestSchema() validation.JSONSchema {
	maxMeasure := validation.FloatPtr(shape.MaxMeasure)
	maxAmount := validation.FloatPtr(float64(money.MaxAmount))

	lineItem := validation.Property{
		Type: "object",
		Properties: map[string]validation.Property{
			"id":                   {Type: "string"},
			"position":             {Type: "string"},
			"description":          {Type: "string", MinLength: validation.IntPtr(1)},
			"quantity":             {Type: "number", Minimum: validation.FloatPtr(0), Maximum: maxMeasure},
			"unit":                 {Type: "string"},
			"estimated_unit_price": {Type: "integer", Minimum: validation.FloatPtr(0), Maximum: maxAmount, Nullable: true},
			"estimated_total":      {Type: "integer", Minimum: validation.FloatPtr(0), Maximum: maxAmount, Nullable: true},
			"is_generated":         {Type: "boolean"},
		},
		Required: []string{"description", "quantity", "unit"},
	}

	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"case_id":          {Type: "string", Nullable: true},
			"action":           {Type: "string", Nullable: true},
			"document_ids":     {Type: "array", Nullable: true, Items: &validation.Property{Type: "string"}},
			"line_items":       {Type: "array", Nullable: true, Items: &lineItem},
			"category":         {Type: "string", Nullable: true},
			"property_address": {Type: "string", Nullable: true},
			"unit_descriptor":  {Type: "string", Nullable: true},
			"location":         {Type: "string", Nullable: true},
			"description":      {Type: "string", Nullable: true},
			"area_sqm":         {Type: "number", Minimum: validation.FloatPtr(0), Maximum: maxMeasure, Nullable: true},
		},
		AdditionalProperties: true,
	}
}

// DecodeRequest validates a decoded JSON body and converts it to a request.
func DecodeRequest(input map[string]interface{}) (models.ScopeRequest, error) {
	normalized := make(map[string]interface{}, len(input))
	for k, v := range input {
		normalized[k] = v
	}
	for alias, name := range requestAliases {
		if v, ok := normalized[alias]; ok {
			if _, exists := normalized[name]; !exists || normalized[name] == nil {
				normalized[name] = v
			}
			delete(normalized, alias)
		}
	}

	if result := validation.ValidateInput(normalized, GetRequestSchema()); !result.Valid {
		return models.ScopeRequest{}, apperrors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}

	raw, err := json.Marshal(normalized)
	if err != nil {
		return models.ScopeRequest{}, apperrors.NewValidationError("request is not valid JSON")
	}
	var req models.ScopeRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return models.ScopeRequest{}, apperrors.NewValidationError("request does not match the expected format")
	}
	return req, nil
}
