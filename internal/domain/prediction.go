package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Forecast sources
// ──────────────────────────────────────────────────────────────────────────────

// SourceName identifies one of the four AI forecast sites whose scraped
// predictions feed the fusion pipeline.
type SourceName string

const (
	SourceUmamax        SourceName = "umamax"
	SourceMuryouKeibaAI SourceName = "muryou-keiba-ai"
	SourceKeibaAIAthena SourceName = "keiba-ai-athena"
	SourceKeibaAINavi   SourceName = "keiba-ai-navi"
)

// AllSources lists every known source in its canonical order. The order is
// load-bearing: the fusion weight tables are indexed by it.
var AllSources = []SourceName{
	SourceUmamax,
	SourceMuryouKeibaAI,
	SourceKeibaAIAthena,
	SourceKeibaAINavi,
}

// IsValid reports whether s is one of the four known sources.
func (s SourceName) IsValid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────────────────────────────────────
// Prediction
// ──────────────────────────────────────────────────────────────────────────────

// PredictionEntry is one horse's position inside a source's ranked forecast.
type PredictionEntry struct {
	HorseNumber int     `json:"horse_number"`
	Rank        int     `json:"rank"`
	Score       float64 `json:"score"`
}

// PredictionEntries is stored as a single JSONB column.
type PredictionEntries []PredictionEntry

// Value implements driver.Valuer for JSONB persistence.
func (e PredictionEntries) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB persistence.
func (e *PredictionEntries) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, e)
	case string:
		return json.Unmarshal([]byte(v), e)
	case nil:
		*e = nil
		return nil
	default:
		return fmt.Errorf("prediction entries: unsupported scan type %T", src)
	}
}

// Prediction is one source's ranked forecast for one race, written by the
// upstream scrapers. Records are immutable once written and expire via TTL.
type Prediction struct {
	RaceID     string            `json:"race_id"     db:"race_id"`
	Source     SourceName        `json:"source"      db:"source"`
	Entries    PredictionEntries `json:"predictions" db:"entries"`
	Venue      string            `json:"venue"       db:"venue"`
	RaceNumber int               `json:"race_number" db:"race_number"`
	ScrapedAt  time.Time         `json:"scraped_at"  db:"scraped_at"`
	TTL        int64             `json:"ttl"         db:"ttl"` // unix epoch seconds
}

// PredictionTTL is how long a scraped prediction stays readable (7 days).
const PredictionTTL = 7 * 24 * time.Hour

// Validate enforces the scraper contract: ranks 1…N without gaps, scores
// monotone non-increasing with rank, horse numbers within 1..18.
func (p *Prediction) Validate() error {
	if _, err := ParseRaceID(p.RaceID); err != nil {
		return err
	}
	if !p.Source.IsValid() {
		return fmt.Errorf("%w: unknown source %q", ErrInvalidPrediction, p.Source)
	}
	if len(p.Entries) == 0 {
		return fmt.Errorf("%w: empty entry list", ErrInvalidPrediction)
	}

	seen := make(map[int]bool, len(p.Entries))
	prevScore := 0.0
	for i, e := range p.Entries {
		if e.HorseNumber < 1 || e.HorseNumber > 18 {
			return fmt.Errorf("%w: horse number %d out of range", ErrInvalidPrediction, e.HorseNumber)
		}
		if e.Rank != i+1 {
			return fmt.Errorf("%w: rank %d at position %d (want %d)", ErrInvalidPrediction, e.Rank, i, i+1)
		}
		if seen[e.HorseNumber] {
			return fmt.Errorf("%w: duplicate horse number %d", ErrInvalidPrediction, e.HorseNumber)
		}
		seen[e.HorseNumber] = true
		if i > 0 && e.Score > prevScore {
			return fmt.Errorf("%w: score %.4f at rank %d exceeds previous %.4f",
				ErrInvalidPrediction, e.Score, e.Rank, prevScore)
		}
		prevScore = e.Score
	}
	return nil
}

// TopHorses returns the horse numbers of the first n entries, in rank order.
func (p *Prediction) TopHorses(n int) []int {
	if n > len(p.Entries) {
		n = len(p.Entries)
	}
	horses := make([]int, 0, n)
	for _, e := range p.Entries[:n] {
		horses = append(horses, e.HorseNumber)
	}
	return horses
}

// RankOf returns the rank of a horse inside this prediction, or 0 when the
// horse does not appear.
func (p *Prediction) RankOf(horse int) int {
	for _, e := range p.Entries {
		if e.HorseNumber == horse {
			return e.Rank
		}
	}
	return 0
}
