// Package consensus classifies how strongly the forecast sources agree on a
// race's top-3, and flags horses whose rank spread across sources is wide.
package consensus

import (
	"fmt"
	"sort"

	"github.com/keibalab/autobet/internal/domain"
)

// divergenceGap is the minimum (max rank − min rank) spread that flags a
// horse as high-divergence.
const divergenceGap = 3

// Analyze takes ≥ 2 source predictions for the same race and classifies
// their top-3 overlap.
func Analyze(predictions []domain.Prediction) (domain.ConsensusResult, error) {
	if len(predictions) < 2 {
		return domain.ConsensusResult{},
			fmt.Errorf("%w: have %d", domain.ErrInsufficientSources, len(predictions))
	}

	// Per-source top-3 sets, and the horses agreed on by every source.
	top3 := make([]map[int]bool, len(predictions))
	for i, p := range predictions {
		set := make(map[int]bool, 3)
		for _, h := range p.TopHorses(3) {
			set[h] = true
		}
		top3[i] = set
	}

	var agreed []int
	for h := range top3[0] {
		inAll := true
		for _, set := range top3[1:] {
			if !set[h] {
				inAll = false
				break
			}
		}
		if inAll {
			agreed = append(agreed, h)
		}
	}
	sort.Ints(agreed)

	level := classify(predictions, agreed)

	return domain.ConsensusResult{
		Level:            level,
		AgreedTop3:       agreed,
		DivergenceHorses: divergenceHorses(predictions),
	}, nil
}

// classify maps the agreed-set size (and rank alignment) to a level.
func classify(predictions []domain.Prediction, agreed []int) domain.ConsensusLevel {
	switch {
	case len(agreed) >= 3:
		if sameRankPositions(predictions, agreed) {
			return domain.ConsensusFull
		}
		return domain.ConsensusMostly
	case len(agreed) == 2:
		return domain.ConsensusPartial
	default:
		return domain.ConsensusLargeDivergence
	}
}

// sameRankPositions reports whether every agreed horse holds the same rank
// in every source's list.
func sameRankPositions(predictions []domain.Prediction, agreed []int) bool {
	for _, h := range agreed {
		rank := predictions[0].RankOf(h)
		for _, p := range predictions[1:] {
			if p.RankOf(h) != rank {
				return false
			}
		}
	}
	return true
}

// divergenceHorses flags horses appearing in any source's top-3 whose rank
// spread across sources is ≥ divergenceGap. Horses absent from a source are
// measured only over the sources that rank them.
func divergenceHorses(predictions []domain.Prediction) []domain.DivergenceHorse {
	candidates := make(map[int]bool)
	for _, p := range predictions {
		for _, h := range p.TopHorses(3) {
			candidates[h] = true
		}
	}

	horses := make([]int, 0, len(candidates))
	for h := range candidates {
		horses = append(horses, h)
	}
	sort.Ints(horses)

	var out []domain.DivergenceHorse
	for _, h := range horses {
		ranks := make(map[domain.SourceName]int)
		minRank, maxRank := 0, 0
		for _, p := range predictions {
			r := p.RankOf(h)
			if r == 0 {
				continue
			}
			ranks[p.Source] = r
			if minRank == 0 || r < minRank {
				minRank = r
			}
			if r > maxRank {
				maxRank = r
			}
		}
		gap := maxRank - minRank
		if gap >= divergenceGap {
			out = append(out, domain.DivergenceHorse{
				HorseNumber:    h,
				RanksPerSource: ranks,
				Gap:            gap,
			})
		}
	}
	return out
}
