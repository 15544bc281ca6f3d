package domain_test

import (
	"errors"
	"testing"

	"github.com/keibalab/autobet/internal/domain"
)

func TestBetProposalValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       domain.BetProposal
		wantErr bool
	}{
		{"win ok", domain.BetProposal{Type: domain.BetTypeWin, HorseNumbers: []int{3}, AmountYen: 1300}, false},
		{"place ok", domain.BetProposal{Type: domain.BetTypePlace, HorseNumbers: []int{7}, AmountYen: 100}, false},
		{"wide ok sorted", domain.BetProposal{Type: domain.BetTypeWide, HorseNumbers: []int{1, 7}, AmountYen: 100}, false},
		{"exacta keeps finish order", domain.BetProposal{Type: domain.BetTypeExacta, HorseNumbers: []int{7, 1}, AmountYen: 100}, false},
		{"amount below minimum", domain.BetProposal{Type: domain.BetTypeWin, HorseNumbers: []int{3}, AmountYen: 50}, true},
		{"amount not quantised", domain.BetProposal{Type: domain.BetTypeWin, HorseNumbers: []int{3}, AmountYen: 150}, true},
		{"win with two horses", domain.BetProposal{Type: domain.BetTypeWin, HorseNumbers: []int{3, 7}, AmountYen: 100}, true},
		{"quinella with one horse", domain.BetProposal{Type: domain.BetTypeQuinella, HorseNumbers: []int{3}, AmountYen: 100}, true},
		{"quinella unsorted", domain.BetProposal{Type: domain.BetTypeQuinella, HorseNumbers: []int{7, 1}, AmountYen: 100}, true},
		{"duplicate horse", domain.BetProposal{Type: domain.BetTypeWide, HorseNumbers: []int{3, 3}, AmountYen: 100}, true},
		{"horse out of range", domain.BetProposal{Type: domain.BetTypePlace, HorseNumbers: []int{19}, AmountYen: 100}, true},
		{"unknown type", domain.BetProposal{Type: "trifecta", HorseNumbers: []int{1, 2}, AmountYen: 100}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if tt.wantErr && !errors.Is(err, domain.ErrInvalidProposal) {
				t.Errorf("Validate() err = %v, want ErrInvalidProposal", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() err = %v, want nil", err)
			}
		})
	}
}

func TestFormatHorseNumbers(t *testing.T) {
	tests := []struct {
		horses []int
		want   string
	}{
		{[]int{3}, "03"},
		{[]int{3, 7}, "03-07"},
		{[]int{7, 1}, "07-01"}, // exacta: finish order preserved
		{[]int{12, 14}, "12-14"},
	}
	for _, tt := range tests {
		if got := domain.FormatHorseNumbers(tt.horses); got != tt.want {
			t.Errorf("FormatHorseNumbers(%v) = %q, want %q", tt.horses, got, tt.want)
		}
	}
}

func TestIpatBetLineValidate(t *testing.T) {
	valid := domain.IpatBetLine{
		Opdt: "20260208", VenueCode: "05", RaceNumber: 11,
		BetType: domain.IpatUmatan, Number: "03-07", AmountYen: 100,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid line rejected: %v", err)
	}

	broken := []func(l *domain.IpatBetLine){
		func(l *domain.IpatBetLine) { l.Opdt = "2026028" },
		func(l *domain.IpatBetLine) { l.Opdt = "2026020a" },
		func(l *domain.IpatBetLine) { l.VenueCode = "5" },
		func(l *domain.IpatBetLine) { l.RaceNumber = 0 },
		func(l *domain.IpatBetLine) { l.RaceNumber = 13 },
		func(l *domain.IpatBetLine) { l.AmountYen = 0 },
		func(l *domain.IpatBetLine) { l.AmountYen = 130 },
		func(l *domain.IpatBetLine) { l.Number = "" },
	}
	for i, mutate := range broken {
		l := valid
		mutate(&l)
		if err := l.Validate(); !errors.Is(err, domain.ErrInvalidBetLine) {
			t.Errorf("case %d: err = %v, want ErrInvalidBetLine", i, err)
		}
	}
}

func TestToIpatBetType(t *testing.T) {
	tests := []struct {
		in   domain.BetType
		want domain.IpatBetType
	}{
		{domain.BetTypeWin, domain.IpatTansyo},
		{domain.BetTypePlace, domain.IpatFukusyo},
		{domain.BetTypeWide, domain.IpatWide},
		{domain.BetTypeQuinella, domain.IpatUmaren},
		{domain.BetTypeExacta, domain.IpatUmatan},
	}
	for _, tt := range tests {
		got, err := domain.ToIpatBetType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ToIpatBetType(%s) = %s, %v, want %s", tt.in, got, err, tt.want)
		}
	}
	if _, err := domain.ToIpatBetType("bogus"); err == nil {
		t.Error("expected error for unmapped bet type")
	}
}

func TestPairKey(t *testing.T) {
	if got := domain.PairKey(7, 3); got != "3-7" {
		t.Errorf("PairKey(7,3) = %q, want min-first %q", got, "3-7")
	}
	if got := domain.PairKey(3, 7); got != "3-7" {
		t.Errorf("PairKey(3,7) = %q, want %q", got, "3-7")
	}
	if got := domain.HorseKey(3); got != "3" {
		t.Errorf("HorseKey(3) = %q, want unpadded %q", got, "3")
	}
}
