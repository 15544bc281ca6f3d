package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Race identifiers
// ──────────────────────────────────────────────────────────────────────────────

// RaceIDParts is a parsed race identifier of the form YYYYMMDD_<VV>_<RR>.
type RaceIDParts struct {
	Date       string // YYYYMMDD
	VenueCode  string // 01..10
	RaceNumber int    // 1..12
}

// VenueNames maps the ten pari-mutuel venue codes to track names.
var VenueNames = map[string]string{
	"01": "Sapporo",
	"02": "Hakodate",
	"03": "Fukushima",
	"04": "Niigata",
	"05": "Tokyo",
	"06": "Nakayama",
	"07": "Chukyo",
	"08": "Kyoto",
	"09": "Hanshin",
	"10": "Kokura",
}

// ParseRaceID validates and splits a race_id string.
func ParseRaceID(raceID string) (RaceIDParts, error) {
	parts := strings.Split(raceID, "_")
	if len(parts) != 3 {
		return RaceIDParts{}, fmt.Errorf("%w: %q", ErrInvalidRaceID, raceID)
	}

	date, venue, rno := parts[0], parts[1], parts[2]
	if _, err := time.Parse("20060102", date); err != nil {
		return RaceIDParts{}, fmt.Errorf("%w: bad date in %q", ErrInvalidRaceID, raceID)
	}
	if _, ok := VenueNames[venue]; !ok {
		return RaceIDParts{}, fmt.Errorf("%w: bad venue code in %q", ErrInvalidRaceID, raceID)
	}
	n, err := strconv.Atoi(rno)
	if err != nil || n < 1 || n > 12 {
		return RaceIDParts{}, fmt.Errorf("%w: bad race number in %q", ErrInvalidRaceID, raceID)
	}

	return RaceIDParts{Date: date, VenueCode: venue, RaceNumber: n}, nil
}

// String reassembles the canonical race_id form.
func (r RaceIDParts) String() string {
	return fmt.Sprintf("%s_%s_%02d", r.Date, r.VenueCode, r.RaceNumber)
}

// RaceCalendarEntry is one row of the daily race calendar feed.
type RaceCalendarEntry struct {
	RaceID   string    `json:"race_id"`
	PostTime time.Time `json:"post_time"`
}
