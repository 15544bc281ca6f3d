package domain

// ──────────────────────────────────────────────────────────────────────────────
// Consensus classification
// ──────────────────────────────────────────────────────────────────────────────

// ConsensusLevel summarises how much the forecast sources agree on the top-3.
type ConsensusLevel string

const (
	// ConsensusFull: all sources share the same three horses in the same
	// rank positions.
	ConsensusFull ConsensusLevel = "full"
	// ConsensusMostly: the same three horses everywhere, but ranks differ.
	ConsensusMostly ConsensusLevel = "mostly"
	// ConsensusPartial: exactly two horses are common to every top-3.
	ConsensusPartial ConsensusLevel = "partial"
	// ConsensusLargeDivergence: at most one horse is common to every top-3.
	ConsensusLargeDivergence ConsensusLevel = "large_divergence"
)

// DivergenceHorse flags a horse whose rank spread across sources is wide
// (gap = max rank − min rank ≥ 3).
type DivergenceHorse struct {
	HorseNumber    int                `json:"horse_number"`
	RanksPerSource map[SourceName]int `json:"ranks_per_source"`
	Gap            int                `json:"gap"`
}

// ConsensusResult is the transient outcome of top-3 overlap analysis.
type ConsensusResult struct {
	Level            ConsensusLevel    `json:"consensus_level"`
	AgreedTop3       []int             `json:"agreed_top3"`
	DivergenceHorses []DivergenceHorse `json:"divergence_horses"`
}
