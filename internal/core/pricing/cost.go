package pricing

import "fmt"

// baseCostPerMinute is the credit rate at multiplier 1: one credit buys one
// minute of audio.
const baseCostPerMinute = 1.0

// modelMultipliers scales cost by the compute weight of the chosen model.
var modelMultipliers = map[string]float64{
	ModelStandard:  1,
	ModelSixStem:   1,
	ModelFineTuned: 2,
}

// Quote is the deterministic credit cost of one separation request.
// StemCount is informational only: the number of stems selected never
// changes the price, only duration and model do.
type Quote struct {
	BaseCost        float64 `json:"base_cost"`
	ModelMultiplier float64 `json:"model_multiplier"`
	TotalCost       float64 `json:"total_cost"`
	StemCount       int     `json:"stem_count"`
}

// Cost computes the credit cost of separating durationMinutes of audio with
// the given model. The duration is used exactly as given; rounding it before
// multiplying loses sub-minute precision and overcharges short files.
func Cost(stems []string, durationMinutes float64, model string) (Quote, error) {
	if durationMinutes < 0 {
		return Quote{}, fmt.Errorf("duration must not be negative, got %f", durationMinutes)
	}
	multiplier, ok := modelMultipliers[model]
	if !ok {
		return Quote{}, fmt.Errorf("unknown separation model: %q", model)
	}
	return Quote{
		BaseCost:        baseCostPerMinute,
		ModelMultiplier: multiplier,
		TotalCost:       baseCostPerMinute * durationMinutes * multiplier,
		StemCount:       len(stems),
	}, nil
}
