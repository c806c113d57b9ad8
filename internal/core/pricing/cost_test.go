package pricing

import (
	"math"
	"testing"
)

func TestCost(t *testing.T) {
	tests := []struct {
		name     string
		stems    []string
		duration float64
		model    string
		want     float64
	}{
		{"free user standard 3 minutes", []string{StemVocals, StemDrums, StemBass, StemOther}, 3.0, ModelStandard, 3.0},
		{"fine-tuned doubles cost", []string{StemVocals}, 3.0, ModelFineTuned, 6.0},
		{"six-stem model costs the same as standard", AllStems, 4.5, ModelSixStem, 4.5},
		{"zero duration is free", []string{StemVocals}, 0, ModelStandard, 0},
		{"sub-minute precision is preserved", []string{StemVocals}, 0.000001, ModelStandard, 0.000001},
		{"fractional duration is not rounded", []string{StemVocals, StemDrums}, 2.75, ModelFineTuned, 5.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Cost(tt.stems, tt.duration, tt.model)
			if err != nil {
				t.Fatalf("Cost() error = %v", err)
			}
			if math.Abs(q.TotalCost-tt.want) > 1e-9 {
				t.Fatalf("TotalCost = %f, want %f", q.TotalCost, tt.want)
			}
			if q.StemCount != len(tt.stems) {
				t.Fatalf("StemCount = %d, want %d", q.StemCount, len(tt.stems))
			}
		})
	}
}

// The stem selection must never influence the price: one stem and six stems
// cost exactly the same for a given duration and model.
func TestCostIndependentOfStemSelection(t *testing.T) {
	for _, model := range []string{ModelStandard, ModelSixStem, ModelFineTuned} {
		var prev *Quote
		for n := 1; n <= len(AllStems); n++ {
			q, err := Cost(AllStems[:n], 3.0, model)
			if err != nil {
				t.Fatalf("Cost(%d stems, %s) error = %v", n, model, err)
			}
			if prev != nil && q.TotalCost != prev.TotalCost {
				t.Fatalf("model %s: cost changed with stem count: %f vs %f", model, q.TotalCost, prev.TotalCost)
			}
			prev = &q
		}
	}
}

func TestCostErrors(t *testing.T) {
	if _, err := Cost([]string{StemVocals}, 3.0, "experimental"); err == nil {
		t.Fatal("expected error for unknown model")
	}
	if _, err := Cost([]string{StemVocals}, -1, ModelStandard); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestTierConfig(t *testing.T) {
	free := TierFree.Config()
	if free.StemAvailable(StemGuitar) {
		t.Fatal("guitar should not be available on the free tier")
	}
	if free.ModelAllowed(ModelFineTuned) {
		t.Fatal("fine-tuned model should not be allowed on the free tier")
	}
	if free.MaxStems != 4 {
		t.Fatalf("free MaxStems = %d, want 4", free.MaxStems)
	}

	for _, tier := range []Tier{TierCreator, TierStudio} {
		cfg := tier.Config()
		for _, stem := range AllStems {
			if !cfg.StemAvailable(stem) {
				t.Fatalf("%s: stem %s should be available", tier, stem)
			}
		}
		if !cfg.ModelAllowed(ModelFineTuned) {
			t.Fatalf("%s: fine-tuned model should be allowed", tier)
		}
	}

	if got := TierCreator.MonthlyCredits() - TierFree.MonthlyCredits(); got != 55 {
		t.Fatalf("free->creator allocation delta = %f, want 55", got)
	}
}

func TestParseTier(t *testing.T) {
	if _, err := ParseTier("studio"); err != nil {
		t.Fatalf("ParseTier(studio) error = %v", err)
	}
	if _, err := ParseTier("enterprise"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
	// A corrupt tier value must never unlock paid features.
	if Tier("enterprise").Config().ModelAllowed(ModelFineTuned) {
		t.Fatal("unknown tier should fall back to free capabilities")
	}
}
