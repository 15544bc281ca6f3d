// Package betgen turns a fused probability distribution, the top-N agreement
// map, and a market odds snapshot into sized bet proposals. Each bet type is
// a filter cascade whose thresholds were fixed by backtest; the generators
// perform no I/O.
package betgen

import (
	"math"

	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/fusion"
	"github.com/shopspring/decimal"
)

// Backtest-fixed filter thresholds.
var (
	winEdgeMin  = 0.03 // exclusive
	winEdgeMax  = 0.05 // inclusive
	winEdgeNorm = 0.035
	kellyScale  = 0.10

	placeMidMin = decimal.NewFromFloat(3.0)
	placeMidMax = decimal.NewFromFloat(8.0)

	wideOddsMin     = decimal.NewFromInt(10)
	quinellaOddsMin = decimal.NewFromInt(15)

	oddsOne = decimal.NewFromInt(1)
)

// ──────────────────────────────────────────────────────────────────────────────
// Win
// ──────────────────────────────────────────────────────────────────────────────

// GenerateWin proposes Kelly-scaled win bets. A horse qualifies when its
// edge e = fused − market satisfies 0.03 < e ≤ 0.05 (the asymmetry is
// intentional and backtest-validated), its win odds exceed 1, and the full
// Kelly fraction is positive. The stake is
//
//	bankroll × kelly × 0.10 × (e / 0.035)
//
// rounded to the nearest 100 yen, floor 100.
func GenerateWin(fused, market map[int]float64, win map[string]domain.WinOdds, bankrollYen int64) []domain.BetProposal {
	var proposals []domain.BetProposal
	for _, h := range fusion.RankedHorses(fused) {
		p := fused[h]
		m, ok := market[h]
		if !ok {
			continue
		}
		edge := p - m
		if edge <= winEdgeMin || edge > winEdgeMax {
			continue
		}
		entry, ok := win[domain.HorseKey(h)]
		if !ok || !entry.O.GreaterThan(oddsOne) {
			continue
		}
		o := entry.O.InexactFloat64()
		kelly := (p*o - 1) / (o - 1)
		if kelly <= 0 {
			continue
		}

		stake := float64(bankrollYen) * kelly * kellyScale * (edge / winEdgeNorm)
		proposals = append(proposals, domain.BetProposal{
			Type:         domain.BetTypeWin,
			HorseNumbers: []int{h},
			AmountYen:    roundStake(stake),
		})
	}
	return proposals
}

// roundStake quantises a stake to the nearest 100 yen, minimum 100.
func roundStake(stake float64) int64 {
	yen := int64(math.Round(stake/100.0)) * 100
	if yen < domain.MinBetYen {
		yen = domain.MinBetYen
	}
	return yen
}

// ──────────────────────────────────────────────────────────────────────────────
// Place
// ──────────────────────────────────────────────────────────────────────────────

// GeneratePlace proposes 100-yen place bets on fused top-4 horses that at
// least 2 sources agree on and whose mid place odds sit in [3.0, 8.0].
func GeneratePlace(fused map[int]float64, agree map[int]int, place map[string]domain.PlaceOdds) []domain.BetProposal {
	var proposals []domain.BetProposal
	for _, h := range fusion.TopHorses(fused, 4) {
		if agree[h] < 2 {
			continue
		}
		entry, ok := place[domain.HorseKey(h)]
		if !ok {
			continue
		}
		if entry.Mid.LessThan(placeMidMin) || entry.Mid.GreaterThan(placeMidMax) {
			continue
		}
		proposals = append(proposals, domain.BetProposal{
			Type:         domain.BetTypePlace,
			HorseNumbers: []int{h},
			AmountYen:    domain.MinBetYen,
		})
	}
	return proposals
}

// ──────────────────────────────────────────────────────────────────────────────
// Wide (quinella place)
// ──────────────────────────────────────────────────────────────────────────────

// GenerateWide proposes 100-yen wide bets on every fused top-5 pair where
// both horses have agreement ≥ 2 and the pair's wide odds are ≥ 10.
func GenerateWide(fused map[int]float64, agree map[int]int, wide map[string]decimal.Decimal) []domain.BetProposal {
	return pairBets(fusion.TopHorses(fused, 5), agree, 2, wide, wideOddsMin, domain.BetTypeWide)
}

// ──────────────────────────────────────────────────────────────────────────────
// Quinella
// ──────────────────────────────────────────────────────────────────────────────

// GenerateQuinella proposes 100-yen quinella bets on every fused top-3 pair
// where both horses have agreement ≥ 3 and the quinella odds are ≥ 15.
func GenerateQuinella(fused map[int]float64, agree map[int]int, quinella map[string]decimal.Decimal) []domain.BetProposal {
	return pairBets(fusion.TopHorses(fused, 3), agree, 3, quinella, quinellaOddsMin, domain.BetTypeQuinella)
}

// pairBets is the shared unordered-pair cascade for wide and quinella.
// Pairs are enumerated in fused-rank order; the proposal's horse numbers are
// sorted ascending.
func pairBets(top []int, agree map[int]int, minAgree int, odds map[string]decimal.Decimal, minOdds decimal.Decimal, betType domain.BetType) []domain.BetProposal {
	var proposals []domain.BetProposal
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			h1, h2 := top[i], top[j]
			if agree[h1] < minAgree || agree[h2] < minAgree {
				continue
			}
			o, ok := odds[domain.PairKey(h1, h2)]
			if !ok || o.LessThan(minOdds) {
				continue
			}
			if h1 > h2 {
				h1, h2 = h2, h1
			}
			proposals = append(proposals, domain.BetProposal{
				Type:         betType,
				HorseNumbers: []int{h1, h2},
				AmountYen:    domain.MinBetYen,
			})
		}
	}
	return proposals
}

// ──────────────────────────────────────────────────────────────────────────────
// Exacta
// ──────────────────────────────────────────────────────────────────────────────

// GenerateExacta proposes 100-yen exacta bets on ordered fused top-3 pairs.
// The first horse must have strictly higher fused probability; both need
// agreement ≥ 3, and the pair's quinella odds (order-independent) must be
// ≥ 15. The horse numbers carry finish order, not ascending order.
func GenerateExacta(fused map[int]float64, agree map[int]int, quinella map[string]decimal.Decimal) []domain.BetProposal {
	top := fusion.TopHorses(fused, 3)

	var proposals []domain.BetProposal
	for i := 0; i < len(top); i++ {
		for j := i + 1; j < len(top); j++ {
			upper, lower := top[i], top[j]
			if fused[upper] <= fused[lower] {
				continue
			}
			if agree[upper] < 3 || agree[lower] < 3 {
				continue
			}
			o, ok := quinella[domain.PairKey(upper, lower)]
			if !ok || o.LessThan(quinellaOddsMin) {
				continue
			}
			proposals = append(proposals, domain.BetProposal{
				Type:         domain.BetTypeExacta,
				HorseNumbers: []int{upper, lower},
				AmountYen:    domain.MinBetYen,
			})
		}
	}
	return proposals
}
