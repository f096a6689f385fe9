package topics

import (
	"math"
	"reflect"
	"testing"

	"marketpulse/internal/textproc"
)

func TestMain(m *testing.M) {
	textproc.Init()
	m.Run()
}

func TestExtractTopicsOrdersByWeight(t *testing.T) {
	e := NewExtractor(42)
	doc := "Revenue revenue revenue revenue chip chip chip cloud cloud margin"

	got := e.ExtractTopics([]string{doc}, 3)
	want := []string{"revenue", "chip", "cloud"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTopics() = %v, want %v", got, want)
	}
}

func TestExtractTopicsCardinality(t *testing.T) {
	e := NewExtractor(42)

	tests := []struct {
		name   string
		corpus []string
		n      int
		want   int
	}{
		{"vocabulary larger than n", []string{"alpha beta gamma delta epsilon zeta eta theta"}, 5, 5},
		{"vocabulary smaller than n", []string{"alpha beta gamma"}, 5, 3},
		{"empty vocabulary", []string{"the and of it"}, 5, 0},
		{"empty corpus", nil, 5, 0},
		{"zero requested", []string{"alpha beta"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ExtractTopics(tt.corpus, tt.n)
			if got == nil {
				t.Fatal("ExtractTopics should never return nil")
			}
			if len(got) != tt.want {
				t.Errorf("Expected %d keywords, got %d (%v)", tt.want, len(got), got)
			}
		})
	}
}

func TestExtractTopicsIsDeterministic(t *testing.T) {
	corpus := []string{"Acme launched a new cloud product while cloud revenue and chip sales grew"}
	first := NewExtractor(7).ExtractTopics(corpus, 4)
	second := NewExtractor(7).ExtractTopics(corpus, 4)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Same seed should give same keywords: %v vs %v", first, second)
	}
}

func TestLDAMultiTopicWeightsArePositive(t *testing.T) {
	x := [][]float64{
		{3, 2, 0, 0},
		{0, 0, 4, 1},
		{2, 3, 0, 1},
	}
	lambda := LDA{Topics: 2, Seed: 1, MaxIterations: 20, MaxDocIter: 100, DocTolerance: 1e-3}.Fit(x)
	if len(lambda) != 2 {
		t.Fatalf("Expected 2 topics, got %d", len(lambda))
	}
	for _, row := range lambda {
		for _, w := range row {
			if w <= 0 || math.IsNaN(w) {
				t.Fatalf("Invalid topic weight %f", w)
			}
		}
	}
}

func TestDirichletExpectation(t *testing.T) {
	// E[log X] for Dirichlet(1, 1) is digamma(1) - digamma(2) = -1.
	got := dirichletExpectation([][]float64{{1, 1}})[0]
	for i, x := range got {
		if math.Abs(x-math.Exp(-1)) > 1e-9 {
			t.Errorf("component %d = %v, want %v", i, x, math.Exp(-1))
		}
	}
}

func TestLDASeedControlsFit(t *testing.T) {
	x := [][]float64{{3, 2, 0, 1}, {0, 1, 4, 1}}
	fit := func(seed int64) [][]float64 {
		return LDA{Topics: 2, Seed: seed, MaxIterations: 5, MaxDocIter: 50, DocTolerance: 1e-3}.Fit(x)
	}
	if !reflect.DeepEqual(fit(3), fit(3)) {
		t.Error("Same seed should give the same topic weights")
	}
	if reflect.DeepEqual(fit(3), fit(4)) {
		t.Error("Different seeds should start from different topic weights")
	}
}
