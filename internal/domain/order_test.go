package domain_test

import (
	"errors"
	"testing"

	"github.com/keibalab/autobet/internal/domain"
)

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		ok       bool
	}{
		{domain.OrderPending, domain.OrderSubmitted, true},
		{domain.OrderSubmitted, domain.OrderCompleted, true},
		{domain.OrderSubmitted, domain.OrderFailed, true},
		{domain.OrderPending, domain.OrderCompleted, false},
		{domain.OrderPending, domain.OrderFailed, false},
		{domain.OrderSubmitted, domain.OrderPending, false},
		{domain.OrderCompleted, domain.OrderFailed, false},
		{domain.OrderCompleted, domain.OrderSubmitted, false},
		{domain.OrderFailed, domain.OrderSubmitted, false},
	}
	for _, tt := range tests {
		if got := domain.CanTransition(tt.from, tt.to); got != tt.ok {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
		}
	}
}

func TestNewPurchaseOrder(t *testing.T) {
	lines := []domain.IpatBetLine{
		{Opdt: "20260208", VenueCode: "05", RaceNumber: 11, BetType: domain.IpatTansyo, Number: "03", AmountYen: 1300},
		{Opdt: "20260208", VenueCode: "05", RaceNumber: 11, BetType: domain.IpatFukusyo, Number: "07", AmountYen: 100},
	}
	o := domain.NewPurchaseOrder("user-1", "20260208_05_11", lines)

	if o.Status != domain.OrderPending {
		t.Errorf("status = %s, want PENDING", o.Status)
	}
	if o.TotalAmount != 1400 {
		t.Errorf("total = %d, want 1400", o.TotalAmount)
	}
	if o.ID.String() == "" {
		t.Error("expected a fresh order id")
	}
}

func TestOrderFailAttachesMessage(t *testing.T) {
	o := domain.NewPurchaseOrder("user-1", "20260208_05_11", nil)
	if err := o.Transition(domain.OrderSubmitted); err != nil {
		t.Fatalf("to SUBMITTED: %v", err)
	}
	if err := o.Fail("ret=-102 msg=insufficient funds"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if o.Status != domain.OrderFailed {
		t.Errorf("status = %s, want FAILED", o.Status)
	}
	if o.ErrorMessage == nil || *o.ErrorMessage == "" {
		t.Error("error message not attached")
	}

	// Terminal: no further moves.
	if err := o.Transition(domain.OrderSubmitted); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("transition out of FAILED err = %v, want ErrInvalidTransition", err)
	}
}
