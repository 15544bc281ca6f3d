package consensus_test

import (
	"errors"
	"testing"

	"github.com/keibalab/autobet/internal/consensus"
	"github.com/keibalab/autobet/internal/domain"
)

func prediction(source domain.SourceName, horses ...int) domain.Prediction {
	entries := make(domain.PredictionEntries, len(horses))
	score := 100.0
	for i, h := range horses {
		entries[i] = domain.PredictionEntry{HorseNumber: h, Rank: i + 1, Score: score}
		score -= 5
	}
	return domain.Prediction{
		RaceID:  "20260208_05_11",
		Source:  source,
		Entries: entries,
	}
}

func TestAnalyzeRequiresTwoSources(t *testing.T) {
	_, err := consensus.Analyze([]domain.Prediction{prediction(domain.SourceUmamax, 3, 7, 1)})
	if !errors.Is(err, domain.ErrInsufficientSources) {
		t.Errorf("err = %v, want ErrInsufficientSources", err)
	}
}

func TestAnalyzeFullConsensus(t *testing.T) {
	preds := []domain.Prediction{
		prediction(domain.SourceUmamax, 3, 7, 1, 9),
		prediction(domain.SourceKeibaAINavi, 3, 7, 1, 5),
	}
	res, err := consensus.Analyze(preds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Level != domain.ConsensusFull {
		t.Errorf("level = %s, want full", res.Level)
	}
	if len(res.AgreedTop3) != 3 {
		t.Errorf("agreed = %v, want 3 horses", res.AgreedTop3)
	}
}

func TestAnalyzeMostlyConsensus(t *testing.T) {
	// Same top-3 set, different ordering.
	preds := []domain.Prediction{
		prediction(domain.SourceUmamax, 3, 7, 1),
		prediction(domain.SourceKeibaAIAthena, 7, 3, 1),
	}
	res, err := consensus.Analyze(preds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Level != domain.ConsensusMostly {
		t.Errorf("level = %s, want mostly", res.Level)
	}
}

func TestAnalyzePartialConsensus(t *testing.T) {
	// Exactly two horses shared between top-3 sets.
	preds := []domain.Prediction{
		prediction(domain.SourceUmamax, 3, 7, 1),
		prediction(domain.SourceMuryouKeibaAI, 3, 7, 9),
	}
	res, err := consensus.Analyze(preds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Level != domain.ConsensusPartial {
		t.Errorf("level = %s, want partial", res.Level)
	}
	if len(res.AgreedTop3) != 2 || res.AgreedTop3[0] != 3 || res.AgreedTop3[1] != 7 {
		t.Errorf("agreed = %v, want [3 7]", res.AgreedTop3)
	}
}

func TestAnalyzeLargeDivergence(t *testing.T) {
	preds := []domain.Prediction{
		prediction(domain.SourceUmamax, 3, 7, 1),
		prediction(domain.SourceKeibaAINavi, 9, 5, 3),
	}
	res, err := consensus.Analyze(preds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if res.Level != domain.ConsensusLargeDivergence {
		t.Errorf("level = %s, want large_divergence", res.Level)
	}
}

func TestAnalyzeDivergenceHorses(t *testing.T) {
	// Horse 3 is ranked 1st by one source and 4th by the other: gap 3 flags
	// it. Horse 7 moves only one position and stays quiet.
	preds := []domain.Prediction{
		prediction(domain.SourceUmamax, 3, 7, 1, 9),
		prediction(domain.SourceKeibaAIAthena, 7, 1, 9, 3),
	}
	res, err := consensus.Analyze(preds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	var flagged *domain.DivergenceHorse
	for i := range res.DivergenceHorses {
		if res.DivergenceHorses[i].HorseNumber == 3 {
			flagged = &res.DivergenceHorses[i]
		}
		if res.DivergenceHorses[i].HorseNumber == 7 {
			t.Error("horse 7 flagged despite gap < 3")
		}
	}
	if flagged == nil {
		t.Fatalf("horse 3 not flagged: %+v", res.DivergenceHorses)
	}
	if flagged.Gap != 3 {
		t.Errorf("gap = %d, want 3", flagged.Gap)
	}
	if flagged.RanksPerSource[domain.SourceUmamax] != 1 || flagged.RanksPerSource[domain.SourceKeibaAIAthena] != 4 {
		t.Errorf("ranks = %v", flagged.RanksPerSource)
	}
}

// A horse absent from one source is measured only over the sources that rank
// it.
func TestAnalyzeDivergenceIgnoresAbsentSources(t *testing.T) {
	preds := []domain.Prediction{
		prediction(domain.SourceUmamax, 3, 7, 1),
		prediction(domain.SourceKeibaAINavi, 7, 3, 1),
	}
	res, err := consensus.Analyze(preds)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(res.DivergenceHorses) != 0 {
		t.Errorf("divergence horses = %+v, want none", res.DivergenceHorses)
	}
}
