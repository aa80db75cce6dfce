// internal/models/request.go
package models

// Action selects one of the four pipeline operations.
type Action string

const (
	ActionAnalyzeAndGenerate      Action = "analyze_and_generate"
	ActionEstimateCosts           Action = "estimate_costs"
	ActionGenerateDescription     Action = "generate_description"
	ActionGenerateFromDescription Action = "generate_from_description"
)

// Actions lists every supported action.
var Actions = []Action{
	ActionAnalyzeAndGenerate,
	ActionEstimateCosts,
	ActionGenerateDescription,
	ActionGenerateFromDescription,
}

func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// ScopeRequest is the caller request of every surface.
type ScopeRequest struct {
	CaseID          string     `json:"case_id"`
	Action          Action     `json:"action"`
	DocumentIDs     []string   `json:"document_ids,omitempty"`
	LineItems       []LineItem `json:"line_items,omitempty"`
	Category        string     `json:"category,omitempty"`
	PropertyAddress string     `json:"property_address,omitempty"`
	UnitDescriptor  string     `json:"unit_descriptor,omitempty"`
	Location        string     `json:"location,omitempty"`
	Description     string     `json:"description,omitempty"`
	AreaSqm         *float64   `json:"area_sqm,omitempty"`
}

// ScopeResult is the success envelope. Which fields are set depends on the
// action; currency values are minor units.
type ScopeResult struct {
	Success          bool          `json:"success"`
	RoomAnalysis     *RoomAnalysis `json:"room_analysis,omitempty"`
	LineItems        []LineItem    `json:"line_items,omitempty"`
	ScopeDescription string        `json:"scope_description,omitempty"`
	CostEstimateMin  *int64        `json:"cost_estimate_min,omitempty"`
	CostEstimateMid  *int64        `json:"cost_estimate_mid,omitempty"`
	CostEstimateMax  *int64        `json:"cost_estimate_max,omitempty"`
	DataSource       string        `json:"data_source,omitempty"`
}

// SetCost copies an estimate into the result.
func (r *ScopeResult) SetCost(c CostEstimate) {
	lo, mid, hi := c.Min, c.Mid, c.Max
	r.CostEstimateMin, r.CostEstimateMid, r.CostEstimateMax = &lo, &mid, &hi
}

// ErrorResponse is the error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
