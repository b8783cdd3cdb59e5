package recipe

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// DefaultWaxCostPerOzCents is soy wax bought in 45lb (720oz) cases.
const DefaultWaxCostPerOzCents int64 = 22

// ErrBlendPercents is returned when blend components do not total 100%.
var ErrBlendPercents = errors.New("blend percents must total 100")

// Component is one scent's weighted share of a fragrance blend.
type Component struct {
	ScentName      string
	Percent        int32
	CostPerOzCents int64
}

// BlendCostPerOz returns the weighted fragrance cost per ounce in cents,
// round-half-up. Percents must total exactly 100.
func BlendCostPerOz(components []Component) (int64, error) {
	var total int32
	weighted := decimal.Zero
	for _, c := range components {
		if c.Percent <= 0 {
			return 0, fmt.Errorf("%w: component %q has percent %d", ErrBlendPercents, c.ScentName, c.Percent)
		}
		total += c.Percent
		weighted = weighted.Add(
			decimal.NewFromInt(int64(c.Percent)).Mul(decimal.NewFromInt(c.CostPerOzCents)))
	}
	if total != 100 {
		return 0, fmt.Errorf("%w: got %d", ErrBlendPercents, total)
	}
	return weighted.DivRound(decimal.NewFromInt(100), 0).IntPart(), nil
}

// CostInput carries everything needed to price one poured candle.
type CostInput struct {
	WaterOz                 float64
	WaxRatio                float64
	FragranceLoad           float64
	WaxCostPerOzCents       int64
	FragranceCostPerOzCents int64
	WickCostCents           int64
	ContainerCostCents      int64
	TargetPriceCents        int64
}

// CostBreakdown is the derived per-candle material economics.
type CostBreakdown struct {
	WaxOz              float64 `json:"waxOz"`
	FragranceOz        float64 `json:"fragranceOz"`
	WaxCostCents       int64   `json:"waxCostCents"`
	FragranceCostCents int64   `json:"fragranceCostCents"`
	WickCostCents      int64   `json:"wickCostCents"`
	MaterialCostCents  int64   `json:"materialCostCents"`
	ContainerCostCents int64   `json:"containerCostCents"`
	TotalCostCents     int64   `json:"totalCostCents"`
	CostPerWaxOzCents  int64   `json:"costPerWaxOzCents"`
	TargetPriceCents   int64   `json:"targetPriceCents"`
	MarginCents        int64   `json:"marginCents"`
	MarginPercent      float64 `json:"marginPercent"`
}

// Cost derives the material cost of one candle. Wax fill is the container's
// water capacity scaled by the water-to-wax ratio; fragrance is a load
// fraction of the wax weight. Ounce quantities stay float64; every cents
// figure is computed and rounded half-up on decimal.
func Cost(in CostInput) CostBreakdown {
	waxCost := in.WaxCostPerOzCents
	if waxCost <= 0 {
		waxCost = DefaultWaxCostPerOzCents
	}
	waxOz := in.WaterOz * in.WaxRatio
	fragranceOz := waxOz * in.FragranceLoad

	b := CostBreakdown{
		WaxOz:              waxOz,
		FragranceOz:        fragranceOz,
		WaxCostCents:       ozTimesCents(waxOz, waxCost),
		FragranceCostCents: ozTimesCents(fragranceOz, in.FragranceCostPerOzCents),
		WickCostCents:      in.WickCostCents,
		ContainerCostCents: in.ContainerCostCents,
		TargetPriceCents:   in.TargetPriceCents,
	}
	b.MaterialCostCents = b.WaxCostCents + b.FragranceCostCents + b.WickCostCents
	b.TotalCostCents = b.MaterialCostCents + b.ContainerCostCents
	if waxOz > 0 {
		b.CostPerWaxOzCents = decimal.NewFromInt(b.MaterialCostCents).
			DivRound(decimal.NewFromFloat(waxOz), 0).
			IntPart()
	}
	b.MarginCents = b.TargetPriceCents - b.TotalCostCents
	if b.TargetPriceCents > 0 {
		b.MarginPercent = math.Round(float64(b.MarginCents)/float64(b.TargetPriceCents)*10000) / 100
	}
	return b
}

// ozTimesCents computes round-half-up(oz × centsPerOz).
func ozTimesCents(oz float64, centsPerOz int64) int64 {
	if oz <= 0 || centsPerOz <= 0 {
		return 0
	}
	return decimal.NewFromFloat(oz).
		Mul(decimal.NewFromInt(centsPerOz)).
		Round(0).
		IntPart()
}
