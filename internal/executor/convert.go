package executor

import (
	"fmt"

	"github.com/keibalab/autobet/internal/domain"
)

// ToBetLines converts bet proposals into gateway wire lines. The race_id
// supplies opdt (date), venue code and race number; horse numbers are
// zero-padded and hyphen-joined, with exacta keeping finish order.
func ToBetLines(raceID string, proposals []domain.BetProposal) ([]domain.IpatBetLine, error) {
	parts, err := domain.ParseRaceID(raceID)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.IpatBetLine, 0, len(proposals))
	for _, p := range proposals {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("executor.ToBetLines: %w", err)
		}
		ipatType, err := domain.ToIpatBetType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("executor.ToBetLines: %w", err)
		}
		line := domain.IpatBetLine{
			Opdt:       parts.Date,
			VenueCode:  parts.VenueCode,
			RaceNumber: parts.RaceNumber,
			BetType:    ipatType,
			Number:     domain.FormatHorseNumbers(p.HorseNumbers),
			AmountYen:  p.AmountYen,
		}
		if err := line.Validate(); err != nil {
			return nil, fmt.Errorf("executor.ToBetLines: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}
