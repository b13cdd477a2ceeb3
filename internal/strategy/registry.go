package strategy

import (
	"fmt"
	"math"
	"strconv"

	"bess-roi/internal/model"
)

// ParameterInfo describes a strategy parameter.
type ParameterInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "float", "int", "string"
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}

// Info describes a registered strategy.
type Info struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ParameterInfo `json:"parameters"`
}

// Describe lists the available strategies in a stable order.
func Describe() []Info {
	return []Info{
		{
			Name:        ProportionalName,
			Description: "Charges once from the day's PV surplus (efficiency on the charge leg) and spreads the stored energy over deficit hours in proportion to demand.",
			Parameters:  []ParameterInfo{},
		},
		{
			Name:        ArbitrageName,
			Description: "Buys capacity/K from the grid in the K cheapest hours and releases it in the K most expensive hours (efficiency on the discharge leg). Ignores PV.",
			Parameters: []ParameterInfo{
				{
					Name:        "top_k",
					Type:        "int",
					Description: fmt.Sprintf("Number of charge and discharge hours, 1..%d", MaxTopK),
					Default:     DefaultTopK,
				},
			},
		},
		{
			Name:        ChronologicalName,
			Description: "Hour-by-hour simulation with a running state of charge bounded by [0, capacity], charged from PV surplus and discharged into the same or later deficit hours.",
			Parameters:  []ParameterInfo{},
		},
	}
}

// New builds a strategy by name. Unknown parameters are ignored.
func New(name string, params map[string]any) (Strategy, error) {
	switch name {
	case "", ProportionalName:
		return Proportional{}, nil
	case ArbitrageName:
		k, err := intParam(params, "top_k", DefaultTopK)
		if err != nil {
			return nil, err
		}
		if k < 1 || k > MaxTopK {
			return nil, fmt.Errorf("%w: top_k must be in [1, %d], got %d", model.ErrInvalidArgument, MaxTopK, k)
		}
		return Arbitrage{TopK: k}, nil
	case ChronologicalName:
		return Chronological{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown strategy %q", model.ErrInvalidArgument, name)
	}
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("param %s must be an integer, got %v", key, t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(t)
		if err != nil {
			return 0, fmt.Errorf("param %s must be an integer: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("param %s has unsupported type %T", key, v)
	}
}
