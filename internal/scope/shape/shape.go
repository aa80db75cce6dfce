// Package shape declares the structured outputs requested from the
// generation backend. The same declarations drive prompt compilation and
// response validation.
package shape

import (
	"encoding/json"
	"fmt"

	"renovation-scope/internal/scope/money"
)

// Kind identifies one declared output shape.
type Kind string

const (
	KindAnalysis        Kind = "analysis"
	KindCostEstimate    Kind = "cost_estimate"
	KindNarrative       Kind = "narrative"
	KindFromDescription Kind = "from_description"
)

// Top-level field names.
const (
	FieldRoomAnalysis     = "room_analysis"
	FieldLineItems        = "line_items"
	FieldScopeDescription = "scope_description"
	FieldCostMin          = "cost_estimate_min"
	FieldCostMid          = "cost_estimate_mid"
	FieldCostMax          = "cost_estimate_max"
	FieldMin              = "min"
	FieldMid              = "mid"
	FieldMax              = "max"
)

// PositionPattern is the accepted form of a backend-supplied position.
const PositionPattern = `^[0-9]+(\.[0-9]+){1,3}$`

// MaxMeasure bounds quantities and areas in square metres.
const MaxMeasure = 1_000_000

type object = map[string]interface{}

func measure() object { return object{"type": "number", "minimum": 0, "maximum": MaxMeasure} }

func amount() object { return object{"type": "number", "minimum": 0, "maximum": money.MaxAmount} }

func nonNegativeInteger() object { return object{"type": "integer", "minimum": 0} }

func stringList() object {
	return object{"type": "array", "items": object{"type": "string"}}
}

func nonBlankString() object {
	return object{"type": "string", "minLength": 1, "pattern": `\S`}
}

// RoomAnalysisSchema is the schema of the room_analysis section.
func RoomAnalysisSchema() map[string]interface{} {
	room := object{
		"type": "object",
		"properties": object{
			"name":         nonBlankString(),
			"area_sqm":     measure(),
			"door_count":   nonNegativeInteger(),
			"window_count": nonNegativeInteger(),
			"fixtures":     stringList(),
		},
		"required": []interface{}{"name", "area_sqm"},
	}
	return object{
		"type": "object",
		"properties": object{
			"rooms":           object{"type": "array", "minItems": 1, "items": room},
			"total_area_sqm":  measure(),
			"total_doors":     nonNegativeInteger(),
			"total_windows":   nonNegativeInteger(),
			"condition_notes": stringList(),
			"recommendations": stringList(),
		},
		"required": []interface{}{"rooms"},
	}
}

// LineItemsSchema is the schema of the line_items section.
func LineItemsSchema() map[string]interface{} {
	item := object{
		"type": "object",
		"properties": object{
			"position":             object{"type": "string"},
			"description":          nonBlankString(),
			"quantity":             measure(),
			"unit":                 nonBlankString(),
			"estimated_unit_price": amount(),
			"estimated_total":      amount(),
		},
		"required": []interface{}{"description", "quantity", "unit"},
	}
	return object{"type": "array", "minItems": 1, "items": item}
}

// NarrativeSchema is the schema of the scope_description section.
func NarrativeSchema() map[string]interface{} {
	return nonBlankString()
}

// Schema returns the complete schema of kind.
func Schema(kind Kind) map[string]interface{} {
	switch kind {
	case KindAnalysis:
		return object{
			"type": "object",
			"properties": object{
				FieldRoomAnalysis:     RoomAnalysisSchema(),
				FieldLineItems:        LineItemsSchema(),
				FieldScopeDescription: NarrativeSchema(),
			},
			"required": []interface{}{FieldRoomAnalysis, FieldLineItems, FieldScopeDescription},
		}
	case KindCostEstimate:
		return object{
			"type": "object",
			"properties": object{
				FieldMin: amount(),
				FieldMid: amount(),
				FieldMax: amount(),
			},
			"required": []interface{}{FieldMin, FieldMid, FieldMax},
		}
	case KindNarrative:
		return object{
			"type":       "object",
			"properties": object{FieldScopeDescription: NarrativeSchema()},
			"required":   []interface{}{FieldScopeDescription},
		}
	case KindFromDescription:
		return object{
			"type": "object",
			"properties": object{
				FieldRoomAnalysis:     RoomAnalysisSchema(),
				FieldLineItems:        LineItemsSchema(),
				FieldScopeDescription: NarrativeSchema(),
				FieldCostMin:          amount(),
				FieldCostMid:          amount(),
				FieldCostMax:          amount(),
			},
			"required": []interface{}{
				FieldRoomAnalysis, FieldLineItems, FieldScopeDescription,
				FieldCostMin, FieldCostMid, FieldCostMax,
			},
		}
	default:
		panic(fmt.Sprintf("shape: unknown kind %q", kind))
	}
}

// SchemaJSON renders the schema of kind for embedding in a prompt.
func SchemaJSON(kind Kind) string {
	raw, err := json.MarshalIndent(Schema(kind), "", "  ")
	if err != nil {
		panic(fmt.Sprintf("shape: marshal schema %q: %v", kind, err))
	}
	return string(raw)
}
