package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Pipeline / executor errors
var (
	// ErrInsufficientSources is returned when fewer than 2 sources have
	// predictions for a race. The executor treats it as a normal zero-bet
	// outcome, not a failure.
	ErrInsufficientSources = errors.New("fewer than 2 prediction sources for race")

	// ErrOddsUnavailable is returned when the odds feed could not be read
	// after retries. Fatal to the invocation; no order is written.
	ErrOddsUnavailable = errors.New("market odds unavailable")

	// ErrConfiguration is returned when required configuration (credentials,
	// env vars) is missing. Fatal; no order is written.
	ErrConfiguration = errors.New("configuration error")

	// ErrSubmissionFailed is returned when the gateway rejected the batch or
	// the network failed mid-submit. The order is persisted as FAILED first.
	ErrSubmissionFailed = errors.New("bet submission failed")

	// ErrPersistence is returned when a store write failed. If it happens
	// after a successful submit, local state may lag reality.
	ErrPersistence = errors.New("store write failed")
)

// Gateway errors
var (
	// ErrGateway wraps any non-success response or network failure from the
	// pari-mutuel gateway.
	ErrGateway = errors.New("gateway error")

	// ErrCredentialsNotFound is returned when no gateway credentials exist
	// for the requested user.
	ErrCredentialsNotFound = errors.New("gateway credentials not found")
)

// Data errors
var (
	// ErrInvalidRaceID is returned for race ids not matching YYYYMMDD_VV_RR.
	ErrInvalidRaceID = errors.New("invalid race id")

	// ErrInvalidPrediction is returned when a scraped record violates the
	// ingestion contract.
	ErrInvalidPrediction = errors.New("invalid prediction record")

	// ErrInvalidProposal is returned when a bet proposal violates its
	// structural invariants.
	ErrInvalidProposal = errors.New("invalid bet proposal")

	// ErrInvalidBetLine is returned when a wire bet line is malformed.
	ErrInvalidBetLine = errors.New("invalid ipat bet line")

	// ErrInvalidTransition is returned for illegal order status moves.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrOrderNotFound is returned when no purchase order matches.
	ErrOrderNotFound = errors.New("purchase order not found")

	// ErrScheduleNotFound is returned when no schedule entry matches.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// IsFatal reports whether err should abort the executor invocation without
// an order record (pre-submit failures).
func IsFatal(err error) bool {
	fatal := []error{
		ErrOddsUnavailable,
		ErrConfiguration,
		ErrInvalidRaceID,
	}
	for _, target := range fatal {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is one of the "entity not found" errors,
// for translation to HTTP 404 on the operator API.
func IsNotFound(err error) bool {
	notFound := []error{
		ErrOrderNotFound,
		ErrScheduleNotFound,
		ErrCredentialsNotFound,
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
