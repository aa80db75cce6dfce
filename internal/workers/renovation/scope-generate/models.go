package scopegenerate

import (
	"context"
	"encoding/json"
	"fmt"

	"renovation-scope/internal/models"
)

// Dispatcher runs one scope request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req models.ScopeRequest) (*models.ScopeResult, error)
}

// OutputVariables renders a result as job completion variables, using the
// same field names as the HTTP response.
func OutputVariables(res *models.ScopeResult) (map[string]interface{}, error) {
	raw, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("marshal scope result: %w", err)
	}
	vars := map[string]interface{}{}
	if err := json.Unmarshal(raw, &vars); err != nil {
		return nil, fmt.Errorf("unmarshal scope result: %w", err)
	}
	return vars, nil
}
