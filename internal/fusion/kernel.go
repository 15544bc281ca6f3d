// Package fusion is the pure probability kernel of the auto-bet pipeline:
// softmax over ranked scores, log-opinion pooling across sources,
// market-implied probabilities from win odds, and top-N agreement counting.
// No I/O and no state — every function is deterministic on its inputs.
package fusion

import (
	"math"
	"sort"

	"github.com/keibalab/autobet/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Softmax
// ──────────────────────────────────────────────────────────────────────────────

// Softmax converts a score sequence into probabilities with temperature beta.
// The max score is subtracted before exponentiation; this is an invariant,
// not an optimisation — it avoids overflow and keeps results bit-identical
// to the backtest.
func Softmax(scores []float64, beta float64) []float64 {
	if len(scores) == 0 {
		return nil
	}

	maxScore := scores[0]
	for _, s := range scores[1:] {
		if s > maxScore {
			maxScore = s
		}
	}

	probs := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		probs[i] = math.Exp(beta * (s - maxScore))
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// SourceProbs applies the source's softmax over its score sequence, keeping
// the horse-number association.
func SourceProbs(p domain.Prediction, beta float64) map[int]float64 {
	scores := make([]float64, len(p.Entries))
	for i, e := range p.Entries {
		scores[i] = e.Score
	}
	probs := Softmax(scores, beta)

	out := make(map[int]float64, len(probs))
	for i, e := range p.Entries {
		out[e.HorseNumber] = probs[i]
	}
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Log-opinion pool
// ──────────────────────────────────────────────────────────────────────────────

// LogOpinionPool fuses per-source probability maps by weighted geometric
// mean. Only horses present in every input map are kept (strict
// intersection — this is the contract, not a bug); the result is
// renormalised to sum to 1. Weights must already be normalised to sum to 1,
// aligned index-for-index with maps. An empty intersection yields an empty
// map.
func LogOpinionPool(maps []map[int]float64, weights []float64) map[int]float64 {
	if len(maps) == 0 || len(maps) != len(weights) {
		return map[int]float64{}
	}

	// Intersect keys across all inputs.
	fused := make(map[int]float64, len(maps[0]))
	for h := range maps[0] {
		inAll := true
		for _, m := range maps[1:] {
			if _, ok := m[h]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			fused[h] = 1.0
		}
	}
	if len(fused) == 0 {
		return fused
	}

	var sum float64
	for h := range fused {
		for i, m := range maps {
			fused[h] *= math.Pow(m[h], weights[i])
		}
		sum += fused[h]
	}
	for h := range fused {
		fused[h] /= sum
	}
	return fused
}

// ──────────────────────────────────────────────────────────────────────────────
// Market-implied probabilities
// ──────────────────────────────────────────────────────────────────────────────

// MarketImpliedProbs inverts win odds into a probability distribution:
// 1/o per horse, renormalised. Entries with o ≤ 0 are dropped.
func MarketImpliedProbs(win map[string]domain.WinOdds) map[int]float64 {
	raw := make(map[int]float64, len(win))
	var sum float64
	for key, odds := range win {
		horse, ok := parseHorseKey(key)
		if !ok {
			continue
		}
		o := odds.O.InexactFloat64()
		if o <= 0 {
			continue
		}
		raw[horse] = 1.0 / o
		sum += raw[horse]
	}
	if sum == 0 {
		return map[int]float64{}
	}
	for h := range raw {
		raw[h] /= sum
	}
	return raw
}

func parseHorseKey(key string) (int, bool) {
	n := 0
	if key == "" {
		return 0, false
	}
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, n >= 1 && n <= 18
}

// ──────────────────────────────────────────────────────────────────────────────
// Agreement counting & ranking
// ──────────────────────────────────────────────────────────────────────────────

// AgreeCounts counts, per horse, in how many sources it appears among that
// source's top-N by probability. Probability ties break by ascending horse
// number so the downstream filter cascade stays deterministic.
func AgreeCounts(sourceMaps []map[int]float64, topN int) map[int]int {
	counts := make(map[int]int)
	for _, m := range sourceMaps {
		for _, h := range TopHorses(m, topN) {
			counts[h]++
		}
	}
	return counts
}

// RankedHorses sorts the horses of a probability map descending by
// probability, ties broken by ascending horse number.
func RankedHorses(probs map[int]float64) []int {
	horses := make([]int, 0, len(probs))
	for h := range probs {
		horses = append(horses, h)
	}
	sort.Slice(horses, func(i, j int) bool {
		pi, pj := probs[horses[i]], probs[horses[j]]
		if pi != pj {
			return pi > pj
		}
		return horses[i] < horses[j]
	})
	return horses
}

// TopHorses returns the first n horses of the deterministic ranking.
func TopHorses(probs map[int]float64, n int) []int {
	ranked := RankedHorses(probs)
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
