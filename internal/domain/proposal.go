package domain

import (
	"fmt"
	"sort"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bet types & proposals
// ──────────────────────────────────────────────────────────────────────────────

// BetType is the pipeline-facing bet classification. The generator cascade
// runs the types in the order listed here.
type BetType string

const (
	BetTypeWin      BetType = "win"
	BetTypePlace    BetType = "place"
	BetTypeWide     BetType = "wide"
	BetTypeQuinella BetType = "quinella"
	BetTypeExacta   BetType = "exacta"
)

// MinBetYen is the pari-mutuel minimum unit; all stakes are multiples of it.
const MinBetYen int64 = 100

// horseCount returns how many horses a bet of this type names.
func (t BetType) horseCount() int {
	switch t {
	case BetTypeWin, BetTypePlace:
		return 1
	case BetTypeWide, BetTypeQuinella, BetTypeExacta:
		return 2
	default:
		return 0
	}
}

// Ordered reports whether the horse sequence carries finish order (exacta)
// rather than being sorted ascending.
func (t BetType) Ordered() bool {
	return t == BetTypeExacta
}

// BetProposal is one sized bet the generator cascade proposes for a race.
// HorseNumbers is sorted ascending for every type except exacta, where it is
// [first-place, second-place].
type BetProposal struct {
	Type         BetType `json:"bet_type"`
	HorseNumbers []int   `json:"horse_numbers"`
	AmountYen    int64   `json:"amount_yen"`
}

// Validate enforces the proposal invariants: stake quantised to whole
// hundreds ≥ 100, correct horse count, and ascending order for unordered
// types.
func (b BetProposal) Validate() error {
	if b.AmountYen < MinBetYen || b.AmountYen%MinBetYen != 0 {
		return fmt.Errorf("%w: amount %d yen", ErrInvalidProposal, b.AmountYen)
	}
	want := b.Type.horseCount()
	if want == 0 {
		return fmt.Errorf("%w: unknown bet type %q", ErrInvalidProposal, b.Type)
	}
	if len(b.HorseNumbers) != want {
		return fmt.Errorf("%w: %s wants %d horses, got %d", ErrInvalidProposal, b.Type, want, len(b.HorseNumbers))
	}
	for _, h := range b.HorseNumbers {
		if h < 1 || h > 18 {
			return fmt.Errorf("%w: horse number %d out of range", ErrInvalidProposal, h)
		}
	}
	if !b.Type.Ordered() && !sort.IntsAreSorted(b.HorseNumbers) {
		return fmt.Errorf("%w: %s horses must be sorted ascending", ErrInvalidProposal, b.Type)
	}
	if len(b.HorseNumbers) == 2 && b.HorseNumbers[0] == b.HorseNumbers[1] {
		return fmt.Errorf("%w: duplicate horse %d", ErrInvalidProposal, b.HorseNumbers[0])
	}
	return nil
}
