package pricing

import "fmt"

// Tier is a subscription level. The set is closed: every tier maps to a
// static capability record, there is no dynamic plan configuration.
type Tier string

const (
	TierFree    Tier = "free"
	TierCreator Tier = "creator"
	TierStudio  Tier = "studio"
)

// Stem identifiers accepted by the separation service.
const (
	StemVocals = "vocals"
	StemDrums  = "drums"
	StemBass   = "bass"
	StemGuitar = "guitar"
	StemPiano  = "piano"
	StemOther  = "other"
)

// Separation model identifiers.
const (
	ModelStandard  = "standard"
	ModelSixStem   = "6-stem"
	ModelFineTuned = "fine-tuned"
)

// AllStems lists every stem the platform can isolate.
var AllStems = []string{StemVocals, StemDrums, StemBass, StemGuitar, StemPiano, StemOther}

// TierConfig is the static capability record for one tier.
type TierConfig struct {
	MonthlyCredits  float64
	AvailableStems  []string
	AllowedModels   []string
	MaxStems        int
	PriceUSDMonthly float64
}

var tierConfigs = map[Tier]TierConfig{
	TierFree: {
		MonthlyCredits:  5,
		AvailableStems:  []string{StemVocals, StemDrums, StemBass, StemOther},
		AllowedModels:   []string{ModelStandard, ModelSixStem},
		MaxStems:        4,
		PriceUSDMonthly: 0,
	},
	TierCreator: {
		MonthlyCredits:  60,
		AvailableStems:  AllStems,
		AllowedModels:   []string{ModelStandard, ModelSixStem, ModelFineTuned},
		MaxStems:        len(AllStems),
		PriceUSDMonthly: 9.99,
	},
	TierStudio: {
		MonthlyCredits:  200,
		AvailableStems:  AllStems,
		AllowedModels:   []string{ModelStandard, ModelSixStem, ModelFineTuned},
		MaxStems:        len(AllStems),
		PriceUSDMonthly: 24.99,
	},
}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	_, ok := tierConfigs[t]
	return ok
}

// Config returns the capability record for t. Unknown tiers fall back to
// the free record so a corrupt row never unlocks paid features.
func (t Tier) Config() TierConfig {
	if cfg, ok := tierConfigs[t]; ok {
		return cfg
	}
	return tierConfigs[TierFree]
}

// MonthlyCredits is the credit allocation granted on each billing cycle.
func (t Tier) MonthlyCredits() float64 {
	return t.Config().MonthlyCredits
}

// ParseTier converts a raw plan string (e.g. from a billing webhook) to a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown subscription tier: %q", s)
	}
	return t, nil
}

// StemAvailable reports whether the tier may request the given stem.
func (c TierConfig) StemAvailable(stem string) bool {
	for _, s := range c.AvailableStems {
		if s == stem {
			return true
		}
	}
	return false
}

// ModelAllowed reports whether the tier may use the given separation model.
func (c TierConfig) ModelAllowed(model string) bool {
	for _, m := range c.AllowedModels {
		if m == model {
			return true
		}
	}
	return false
}
