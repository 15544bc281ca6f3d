package fusion_test

import (
	"errors"
	"math"
	"testing"

	"github.com/keibalab/autobet/internal/domain"
	"github.com/keibalab/autobet/internal/fusion"
	"github.com/shopspring/decimal"
)

const eps = 1e-9

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func sumOf(probs map[int]float64) float64 {
	var s float64
	for _, p := range probs {
		s += p
	}
	return s
}

func TestSoftmaxBasics(t *testing.T) {
	probs := fusion.Softmax([]float64{92.1, 88.4, 80.0}, 0.052082)

	var sum float64
	for _, p := range probs {
		if p <= 0 {
			t.Errorf("softmax produced non-positive probability %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1.0) > eps {
		t.Errorf("softmax sum = %v, want 1", sum)
	}
	// Higher score, higher probability.
	if !(probs[0] > probs[1] && probs[1] > probs[2]) {
		t.Errorf("softmax not monotone: %v", probs)
	}
}

func TestSoftmaxEqualScores(t *testing.T) {
	probs := fusion.Softmax([]float64{50, 50, 50, 50}, 0.072791)
	for i, p := range probs {
		if math.Abs(p-0.25) > eps {
			t.Errorf("probs[%d] = %v, want 0.25", i, p)
		}
	}
}

// Scores far beyond exp's overflow range must still produce a valid
// distribution thanks to max-subtraction.
func TestSoftmaxLargeScores(t *testing.T) {
	probs := fusion.Softmax([]float64{1e6, 1e6 - 10, 1e6 - 20}, 1.0)
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("probs[%d] = %v", i, p)
		}
	}
	if math.Abs(sumOfSlice(probs)-1.0) > eps {
		t.Errorf("sum = %v, want 1", sumOfSlice(probs))
	}
}

func sumOfSlice(probs []float64) float64 {
	var s float64
	for _, p := range probs {
		s += p
	}
	return s
}

func TestSoftmaxEmpty(t *testing.T) {
	if got := fusion.Softmax(nil, 0.05); got != nil {
		t.Errorf("Softmax(nil) = %v, want nil", got)
	}
}

func TestLogOpinionPool(t *testing.T) {
	maps := []map[int]float64{
		{1: 0.5, 2: 0.3, 3: 0.2},
		{1: 0.6, 2: 0.25, 3: 0.15},
	}
	fused := fusion.LogOpinionPool(maps, []float64{0.5, 0.5})

	if math.Abs(sumOf(fused)-1.0) > eps {
		t.Errorf("fused sum = %v, want 1", sumOf(fused))
	}
	if !(fused[1] > fused[2] && fused[2] > fused[3]) {
		t.Errorf("fused order wrong: %v", fused)
	}
}

// Only horses present in every source survive the pool.
func TestLogOpinionPoolStrictIntersection(t *testing.T) {
	maps := []map[int]float64{
		{1: 0.5, 2: 0.3, 3: 0.2},
		{1: 0.7, 2: 0.3}, // horse 3 absent
	}
	fused := fusion.LogOpinionPool(maps, []float64{0.5, 0.5})

	if _, ok := fused[3]; ok {
		t.Error("horse 3 should be dropped from the pool")
	}
	if len(fused) != 2 {
		t.Errorf("fused size = %d, want 2", len(fused))
	}
	if math.Abs(sumOf(fused)-1.0) > eps {
		t.Errorf("fused sum = %v, want 1", sumOf(fused))
	}
}

func TestLogOpinionPoolEmptyIntersection(t *testing.T) {
	maps := []map[int]float64{{1: 1.0}, {2: 1.0}}
	fused := fusion.LogOpinionPool(maps, []float64{0.5, 0.5})
	if len(fused) != 0 {
		t.Errorf("fused = %v, want empty", fused)
	}
}

func TestLogOpinionPoolWeightSkew(t *testing.T) {
	// Weight ~1 on the first source reproduces that source's ordering even
	// when the second disagrees.
	maps := []map[int]float64{
		{1: 0.8, 2: 0.2},
		{1: 0.1, 2: 0.9},
	}
	fused := fusion.LogOpinionPool(maps, []float64{0.99, 0.01})
	if fused[1] <= fused[2] {
		t.Errorf("dominant source overruled: %v", fused)
	}
}

func TestMarketImpliedProbs(t *testing.T) {
	win := map[string]domain.WinOdds{
		"3": {O: dec(t, "4.0")},
		"7": {O: dec(t, "2.0")},
	}
	market := fusion.MarketImpliedProbs(win)

	// raw: 1/4 and 1/2, renormalised over 0.75.
	if math.Abs(market[3]-1.0/3.0) > eps {
		t.Errorf("market[3] = %v, want 1/3", market[3])
	}
	if math.Abs(market[7]-2.0/3.0) > eps {
		t.Errorf("market[7] = %v, want 2/3", market[7])
	}
}

func TestMarketImpliedProbsSkipsBadEntries(t *testing.T) {
	win := map[string]domain.WinOdds{
		"3":  {O: dec(t, "4.0")},
		"0":  {O: dec(t, "2.0")}, // horse number out of range
		"x":  {O: dec(t, "2.0")}, // non-numeric key
		"7":  {O: dec(t, "0")},   // zero odds
		"19": {O: dec(t, "3.0")}, // out of range
	}
	market := fusion.MarketImpliedProbs(win)
	if len(market) != 1 {
		t.Fatalf("market = %v, want only horse 3", market)
	}
	if math.Abs(market[3]-1.0) > eps {
		t.Errorf("market[3] = %v, want 1", market[3])
	}
}

func TestAgreeCounts(t *testing.T) {
	sourceMaps := []map[int]float64{
		{3: 0.5, 7: 0.3, 1: 0.2},
		{3: 0.4, 1: 0.4, 7: 0.2},
		{7: 0.6, 3: 0.3, 9: 0.1},
	}
	agree := fusion.AgreeCounts(sourceMaps, 2)

	want := map[int]int{3: 3, 7: 2, 1: 1}
	for h, n := range want {
		if agree[h] != n {
			t.Errorf("agree[%d] = %d, want %d", h, agree[h], n)
		}
	}
	if agree[9] != 0 {
		t.Errorf("agree[9] = %d, want 0", agree[9])
	}
}

// Probability ties resolve toward the lower horse number everywhere ranking
// happens, so the cascade stays deterministic run to run.
func TestRankedHorsesTieBreak(t *testing.T) {
	probs := map[int]float64{7: 0.25, 3: 0.25, 1: 0.5}
	got := fusion.RankedHorses(probs)
	want := []int{1, 3, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("RankedHorses = %v, want %v", got, want)
		}
	}
}

func TestTopHorsesTruncates(t *testing.T) {
	probs := map[int]float64{1: 0.4, 2: 0.3, 3: 0.2, 4: 0.1}
	if got := fusion.TopHorses(probs, 2); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("TopHorses = %v, want [1 2]", got)
	}
	if got := fusion.TopHorses(probs, 10); len(got) != 4 {
		t.Errorf("TopHorses(10) = %v, want all 4", got)
	}
}

func TestNormalizedWeights(t *testing.T) {
	present := []domain.SourceName{domain.SourceUmamax, domain.SourceKeibaAINavi}
	weights, err := fusion.NormalizedWeights(present, fusion.WinFamily)
	if err != nil {
		t.Fatalf("NormalizedWeights: %v", err)
	}

	// win weights 0.401 and 0.313 renormalised over 0.714.
	if math.Abs(weights[0]-0.401/0.714) > eps || math.Abs(weights[1]-0.313/0.714) > eps {
		t.Errorf("weights = %v", weights)
	}
	if math.Abs(weights[0]+weights[1]-1.0) > eps {
		t.Errorf("weights sum = %v, want 1", weights[0]+weights[1])
	}
}

func TestNormalizedWeightsFamiliesDiffer(t *testing.T) {
	present := []domain.SourceName{domain.SourceUmamax, domain.SourceMuryouKeibaAI}
	win, err := fusion.NormalizedWeights(present, fusion.WinFamily)
	if err != nil {
		t.Fatal(err)
	}
	place, err := fusion.NormalizedWeights(present, fusion.PlaceFamily)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(win[0]-place[0]) < eps {
		t.Error("win and place families should weight umamax differently")
	}
}

func TestNormalizedWeightsInsufficientSources(t *testing.T) {
	_, err := fusion.NormalizedWeights([]domain.SourceName{domain.SourceUmamax}, fusion.WinFamily)
	if !errors.Is(err, domain.ErrInsufficientSources) {
		t.Errorf("err = %v, want ErrInsufficientSources", err)
	}
}

func TestNormalizedWeightsUnknownSource(t *testing.T) {
	_, err := fusion.NormalizedWeights([]domain.SourceName{domain.SourceUmamax, "keiba-gpt"}, fusion.WinFamily)
	if err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestSourceProbsKeepsHorseAssociation(t *testing.T) {
	p := domain.Prediction{
		Entries: domain.PredictionEntries{
			{HorseNumber: 3, Rank: 1, Score: 92.1},
			{HorseNumber: 7, Rank: 2, Score: 88.4},
			{HorseNumber: 1, Rank: 3, Score: 80.0},
		},
	}
	probs := fusion.SourceProbs(p, 0.052082)
	if len(probs) != 3 {
		t.Fatalf("probs = %v, want 3 horses", probs)
	}
	if !(probs[3] > probs[7] && probs[7] > probs[1]) {
		t.Errorf("probability order does not follow score order: %v", probs)
	}
}
