package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// IPAT wire format
// ──────────────────────────────────────────────────────────────────────────────

// IpatBetType is the gateway's bet-type vocabulary.
type IpatBetType string

const (
	IpatTansyo     IpatBetType = "tansyo"     // win
	IpatFukusyo    IpatBetType = "fukusyo"    // place
	IpatWide       IpatBetType = "wide"       // quinella place
	IpatUmaren     IpatBetType = "umaren"     // quinella
	IpatUmatan     IpatBetType = "umatan"     // exacta
	IpatSanrenpuku IpatBetType = "sanrenpuku" // trio
	IpatSanrentan  IpatBetType = "sanrentan"  // trifecta
)

// ipatBetTypes maps pipeline bet types onto the gateway vocabulary.
var ipatBetTypes = map[BetType]IpatBetType{
	BetTypeWin:      IpatTansyo,
	BetTypePlace:    IpatFukusyo,
	BetTypeWide:     IpatWide,
	BetTypeQuinella: IpatUmaren,
	BetTypeExacta:   IpatUmatan,
}

// ToIpatBetType translates a pipeline bet type to the gateway enum.
func ToIpatBetType(t BetType) (IpatBetType, error) {
	ipat, ok := ipatBetTypes[t]
	if !ok {
		return "", fmt.Errorf("%w: no ipat mapping for bet type %q", ErrInvalidProposal, t)
	}
	return ipat, nil
}

// Ordered reports whether the number string carries finish order.
func (t IpatBetType) Ordered() bool {
	return t == IpatUmatan || t == IpatSanrentan
}

// FormatHorseNumbers renders the wire "number" field: each horse zero-padded
// to 2 digits, hyphen-joined. The caller supplies horses already in the
// correct order (sorted ascending, or finish order for umatan/sanrentan).
func FormatHorseNumbers(horses []int) string {
	parts := make([]string, len(horses))
	for i, h := range horses {
		parts[i] = fmt.Sprintf("%02d", h)
	}
	return strings.Join(parts, "-")
}

// IpatBetLine is one row of a gateway submission payload.
type IpatBetLine struct {
	Opdt       string      `json:"opdt"`       // YYYYMMDD
	VenueCode  string      `json:"venue_code"` // 2 digits
	RaceNumber int         `json:"rno"`        // 1..12
	BetType    IpatBetType `json:"bet_type"`
	Number     string      `json:"number"` // zero-padded, hyphen-joined
	AmountYen  int64       `json:"amount"`
}

// Validate enforces the wire invariants.
func (l IpatBetLine) Validate() error {
	if len(l.Opdt) != 8 {
		return fmt.Errorf("%w: opdt %q", ErrInvalidBetLine, l.Opdt)
	}
	for _, c := range l.Opdt {
		if c < '0' || c > '9' {
			return fmt.Errorf("%w: opdt %q", ErrInvalidBetLine, l.Opdt)
		}
	}
	if len(l.VenueCode) != 2 {
		return fmt.Errorf("%w: venue code %q", ErrInvalidBetLine, l.VenueCode)
	}
	if l.RaceNumber < 1 || l.RaceNumber > 12 {
		return fmt.Errorf("%w: race number %d", ErrInvalidBetLine, l.RaceNumber)
	}
	if l.AmountYen < MinBetYen || l.AmountYen%MinBetYen != 0 {
		return fmt.Errorf("%w: amount %d", ErrInvalidBetLine, l.AmountYen)
	}
	if l.Number == "" {
		return fmt.Errorf("%w: empty number", ErrInvalidBetLine)
	}
	return nil
}

// BetLines is stored as a single JSONB column on the purchase order.
type BetLines []IpatBetLine

// Value implements driver.Valuer for JSONB persistence.
func (b BetLines) Value() (driver.Value, error) {
	return json.Marshal(b)
}

// Scan implements sql.Scanner for JSONB persistence.
func (b *BetLines) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, b)
	case string:
		return json.Unmarshal([]byte(v), b)
	case nil:
		*b = nil
		return nil
	default:
		return fmt.Errorf("bet lines: unsupported scan type %T", src)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Purchase order
// ──────────────────────────────────────────────────────────────────────────────

// OrderStatus is the purchase-order lifecycle state.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderSubmitted OrderStatus = "SUBMITTED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderFailed    OrderStatus = "FAILED"
)

// validTransitions encodes the one-way status machine
// PENDING → SUBMITTED → {COMPLETED, FAILED}. Re-submission is a new order.
var validTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderSubmitted},
	OrderSubmitted: {OrderCompleted, OrderFailed},
}

// CanTransition reports whether from → to is a legal move.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PurchaseOrder is the aggregate root for one gateway submission.
type PurchaseOrder struct {
	ID           uuid.UUID   `json:"id"            db:"id"`
	UserID       string      `json:"user_id"       db:"user_id"`
	RaceID       string      `json:"race_id"       db:"race_id"`
	BetLines     BetLines    `json:"bet_lines"     db:"bet_lines"`
	TotalAmount  int64       `json:"total_amount"  db:"total_amount"`
	Status       OrderStatus `json:"status"        db:"status"`
	ErrorMessage *string     `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time   `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"    db:"updated_at"`
}

// NewPurchaseOrder builds a PENDING order with a fresh UUID.
func NewPurchaseOrder(userID, raceID string, lines []IpatBetLine) *PurchaseOrder {
	var total int64
	for _, l := range lines {
		total += l.AmountYen
	}
	now := time.Now().UTC()
	return &PurchaseOrder{
		ID:          uuid.New(),
		UserID:      userID,
		RaceID:      raceID,
		BetLines:    lines,
		TotalAmount: total,
		Status:      OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Transition moves the order to the next status, rejecting any move that is
// not part of the one-way machine.
func (o *PurchaseOrder) Transition(to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, o.Status, to)
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Fail marks the order FAILED with the gateway's message attached.
func (o *PurchaseOrder) Fail(msg string) error {
	if err := o.Transition(OrderFailed); err != nil {
		return err
	}
	o.ErrorMessage = &msg
	return nil
}
