package executor_test

import (
	"errors"
	"testing"

	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/executor"
)

func TestToBetLines(t *testing.T) {
	proposals := []domain.BetProposal{
		{Type: domain.BetTypeWin, HorseNumbers: []int{3}, AmountYen: 1300},
		{Type: domain.BetTypeWide, HorseNumbers: []int{1, 7}, AmountYen: 100},
		{Type: domain.BetTypeExacta, HorseNumbers: []int{7, 1}, AmountYen: 100},
	}

	lines, err := executor.ToBetLines("20260208_05_11", proposals)
	if err != nil {
		t.Fatalf("ToBetLines: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %+v, want three", lines)
	}

	for i, l := range lines {
		if l.Opdt != "20260208" || l.VenueCode != "05" || l.RaceNumber != 11 {
			t.Errorf("line %d race fields = %+v", i, l)
		}
	}
	if lines[0].BetType != domain.IpatTansyo || lines[0].Number != "03" || lines[0].AmountYen != 1300 {
		t.Errorf("win line = %+v", lines[0])
	}
	if lines[1].BetType != domain.IpatWide || lines[1].Number != "01-07" {
		t.Errorf("wide line = %+v", lines[1])
	}
	// Exacta keeps finish order on the wire.
	if lines[2].BetType != domain.IpatUmatan || lines[2].Number != "07-01" {
		t.Errorf("exacta line = %+v", lines[2])
	}
}

func TestToBetLinesRejectsBadInput(t *testing.T) {
	good := []domain.BetProposal{{Type: domain.BetTypeWin, HorseNumbers: []int{3}, AmountYen: 100}}

	if _, err := executor.ToBetLines("bogus", good); !errors.Is(err, domain.ErrInvalidRaceID) {
		t.Errorf("err = %v, want ErrInvalidRaceID", err)
	}

	bad := []domain.BetProposal{{Type: domain.BetTypeWin, HorseNumbers: []int{3}, AmountYen: 150}}
	if _, err := executor.ToBetLines("20260208_05_11", bad); !errors.Is(err, domain.ErrInvalidProposal) {
		t.Errorf("err = %v, want ErrInvalidProposal", err)
	}
}
