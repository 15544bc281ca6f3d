package fusion

import (
	"fmt"

	"github.com/keibalab/autobet/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Backtest-fixed constants
// ──────────────────────────────────────────────────────────────────────────────
//
// The betas and source weights below were fixed by backtest. They must not be
// re-tuned casually: the win-edge filter in the generator cascade depends on
// these exact values.

// betas is the per-source softmax temperature.
var betas = map[domain.SourceName]float64{
	domain.SourceUmamax:        0.052082,
	domain.SourceMuryouKeibaAI: 0.072791,
	domain.SourceKeibaAIAthena: 0.006745,
	domain.SourceKeibaAINavi:   0.070031,
}

// winWeights is the log-opinion-pool weight per source for the win branch.
var winWeights = map[domain.SourceName]float64{
	domain.SourceUmamax:        0.401,
	domain.SourceMuryouKeibaAI: 0.035,
	domain.SourceKeibaAIAthena: 0.251,
	domain.SourceKeibaAINavi:   0.313,
}

// placeWeights is the pool weight per source for the place / wide / quinella
// / exacta branch.
var placeWeights = map[domain.SourceName]float64{
	domain.SourceUmamax:        0.314,
	domain.SourceMuryouKeibaAI: 0.214,
	domain.SourceKeibaAIAthena: 0.309,
	domain.SourceKeibaAINavi:   0.164,
}

// Beta returns the softmax temperature for a source.
func Beta(source domain.SourceName) (float64, bool) {
	b, ok := betas[source]
	return b, ok
}

// WeightFamily selects which backtested weight table to renormalise.
type WeightFamily int

const (
	WinFamily WeightFamily = iota
	PlaceFamily
)

// NormalizedWeights renormalises the chosen weight table over the sources
// actually present, so the result sums to 1. At least 2 present sources are
// required; fewer is ErrInsufficientSources.
//
// The returned slice is aligned with the present slice.
func NormalizedWeights(present []domain.SourceName, family WeightFamily) ([]float64, error) {
	if len(present) < 2 {
		return nil, fmt.Errorf("%w: have %d", domain.ErrInsufficientSources, len(present))
	}

	table := winWeights
	if family == PlaceFamily {
		table = placeWeights
	}

	weights := make([]float64, len(present))
	var sum float64
	for i, s := range present {
		w, ok := table[s]
		if !ok {
			return nil, fmt.Errorf("no backtest weight for source %q", s)
		}
		weights[i] = w
		sum += w
	}
	for i := range weights {
		weights[i] /= sum
	}
	return weights, nil
}
