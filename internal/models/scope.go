// internal/models/scope.go
package models

import "fmt"

// LumpSumUnit is the unit token of template line items.
const LumpSumUnit = "psch"

// LineItem is one row of a scope of work. Monetary fields are minor units.
type LineItem struct {
	ID                 string  `json:"id"`
	Position           string  `json:"position"`
	Description        string  `json:"description"`
	Quantity           float64 `json:"quantity"`
	Unit               string  `json:"unit"`
	EstimatedUnitPrice *int64  `json:"estimated_unit_price,omitempty"`
	EstimatedTotal     *int64  `json:"estimated_total,omitempty"`
	IsGenerated        bool    `json:"is_generated"`
}

// PositionFor returns the position label of the i-th (1-based) item: five
// items per group, "1.1" through "1.5", then "2.1".
func PositionFor(i int) string {
	if i < 1 {
		i = 1
	}
	return fmt.Sprintf("%d.%d", (i-1)/5+1, (i-1)%5+1)
}

type Room struct {
	Name        string   `json:"name"`
	AreaSqm     float64  `json:"area_sqm"`
	DoorCount   int      `json:"door_count"`
	WindowCount int      `json:"window_count"`
	Fixtures    []string `json:"fixtures"`
}

type RoomAnalysis struct {
	Rooms           []Room   `json:"rooms"`
	TotalAreaSqm    float64  `json:"total_area_sqm"`
	TotalDoors      int      `json:"total_doors"`
	TotalWindows    int      `json:"total_windows"`
	ConditionNotes  []string `json:"condition_notes"`
	Recommendations []string `json:"recommendations"`
}

// Recompute sets the totals from the room list.
func (a *RoomAnalysis) Recompute() {
	a.TotalAreaSqm, a.TotalDoors, a.TotalWindows = 0, 0, 0
	for _, r := range a.Rooms {
		a.TotalAreaSqm += r.AreaSqm
		a.TotalDoors += r.DoorCount
		a.TotalWindows += r.WindowCount
	}
}

// CostEstimate is a three-point total in minor currency units.
type CostEstimate struct {
	Min int64 `json:"min"`
	Mid int64 `json:"mid"`
	Max int64 `json:"max"`
}

// Ordered reports whether Min <= Mid <= Max.
func (c CostEstimate) Ordered() bool {
	return c.Min <= c.Mid && c.Mid <= c.Max
}
