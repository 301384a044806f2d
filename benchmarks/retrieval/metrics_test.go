// ABOUTME: Tests for retrieval benchmark metrics
// ABOUTME: Checks recall, reciprocal rank and pass/fail evaluation

package retrieval

import (
	"math"
	"testing"
)

func TestDocumentRecall(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		expected  []string
		want      float64
	}{
		{"all found", []string{"a", "b"}, []string{"b", "a"}, 1.0},
		{"half found", []string{"a", "c"}, []string{"a", "b"}, 0.5},
		{"none found", []string{"c"}, []string{"a"}, 0},
		{"nothing expected", nil, nil, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, detail := DocumentRecall(tt.retrieved, tt.expected)
			if got != tt.want {
				t.Errorf("DocumentRecall() = %v, want %v (%s)", got, tt.want, detail)
			}
		})
	}
}

func TestReciprocalRank(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		expected  []string
		want      float64
	}{
		{"first", []string{"a", "b"}, []string{"a"}, 1.0},
		{"third", []string{"x", "y", "a"}, []string{"a"}, 1.0 / 3},
		{"absent", []string{"x"}, []string{"a"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReciprocalRank(tt.retrieved, tt.expected); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ReciprocalRank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHistoryRecall_CaseInsensitive(t *testing.T) {
	got, _ := HistoryRecall([]string{"My name is Sam", "I like GREEN"}, []string{"sam", "green", "blue"})
	if math.Abs(got-2.0/3) > 1e-9 {
		t.Errorf("HistoryRecall() = %v, want 2/3", got)
	}
}

func TestEvaluate(t *testing.T) {
	s := Scenario{ID: "x", Name: "x", GroundTruth: GroundTruth{ExpectedDocuments: []string{"a"}, ExpectedInHistory: []string{"hello"}}}

	pass := Evaluate(s, []string{"a"}, []string{"hello there"})
	if pass.Status != "PASS" || pass.OverallScore != 1.0 {
		t.Errorf("Evaluate() = %+v, want PASS with 1.0", pass)
	}

	fail := Evaluate(s, []string{"b"}, []string{"hello there"})
	if fail.Status != "FAIL" || fail.OverallScore != 0.5 {
		t.Errorf("Evaluate() = %+v, want FAIL with 0.5", fail)
	}
}
