package domain

// ──────────────────────────────────────────────────────────────────────────────
// Gateway credentials
// ──────────────────────────────────────────────────────────────────────────────

// Credentials is the opaque 4-tuple the pari-mutuel gateway authenticates
// with. It is retrieved per user, held only for the span of one submission,
// and must never appear in logs.
type Credentials struct {
	INetID       string `db:"inet_id"`
	SubscriberNo string `db:"subscriber_no"`
	PIN          string `db:"pin"`
	PARSNo       string `db:"pars_no"`
}

// IsComplete reports whether all four fields are present.
func (c Credentials) IsComplete() bool {
	return c.INetID != "" && c.SubscriberNo != "" && c.PIN != "" && c.PARSNo != ""
}

// Zero wipes the tuple in place. Call after the gateway submission finishes.
func (c *Credentials) Zero() {
	c.INetID = ""
	c.SubscriberNo = ""
	c.PIN = ""
	c.PARSNo = ""
}

// Balance is the gateway's four-field account snapshot, in integer yen.
type Balance struct {
	DedicatedYen int64 `json:"dedicated_balance"`
	SettlableYen int64 `json:"settlable_balance"`
	BettableYen  int64 `json:"bettable_balance"`
	LimitYen     int64 `json:"limit_amount"`
}
