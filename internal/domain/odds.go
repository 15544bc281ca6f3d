package domain

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Market odds snapshot
// ──────────────────────────────────────────────────────────────────────────────

// WinOdds is the decimal win payout for a single horse.
type WinOdds struct {
	O decimal.Decimal `json:"o"`
}

// PlaceOdds carries the payout band for a place (fukusyo) bet; place payouts
// are only known as a range until the pool closes.
type PlaceOdds struct {
	Min decimal.Decimal `json:"min"`
	Mid decimal.Decimal `json:"mid"`
	Max decimal.Decimal `json:"max"`
}

// MarketOdds is the odds snapshot taken at executor invocation time. Any of
// the four slices may be absent; each bet generator runs only when its slice
// is present. Single-horse keys are plain decimal strings ("3"); pair keys
// are min-first hyphen-joined ("3-7").
type MarketOdds struct {
	Win           map[string]WinOdds         `json:"win,omitempty"`
	Place         map[string]PlaceOdds       `json:"place,omitempty"`
	QuinellaPlace map[string]decimal.Decimal `json:"quinella_place,omitempty"`
	Quinella      map[string]decimal.Decimal `json:"quinella,omitempty"`
}

// HorseKey builds the odds-map key for a single horse.
func HorseKey(horse int) string {
	return strconv.Itoa(horse)
}

// PairKey builds the min-first odds-map key for an unordered horse pair.
func PairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d-%d", a, b)
}
