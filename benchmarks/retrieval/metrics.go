// ABOUTME: Retrieval metrics: document recall, reciprocal rank and history recall
// ABOUTME: Deterministic scores computed against each scenario's ground truth

package retrieval

import (
	"fmt"
	"slices"
	"strings"
)

// PassThreshold is the minimum score on every metric for a scenario to pass
const PassThreshold = 0.9

// DocumentRecall is the fraction of expected document names present in retrieved
func DocumentRecall(retrieved, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No documents expected"
	}

	var missing []string
	for _, name := range expected {
		if !slices.Contains(retrieved, name) {
			missing = append(missing, name)
		}
	}

	recall := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return recall, "All expected documents retrieved"
	}
	return recall, fmt.Sprintf("Partial document recall (%.2f) - missing: %v", recall, missing)
}

// ReciprocalRank is 1/rank of the first expected document in retrieved, 0 if none appear
func ReciprocalRank(retrieved, expected []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	for i, name := range retrieved {
		if slices.Contains(expected, name) {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// HistoryRecall is the fraction of expected strings found (case-insensitively) in the turn texts
func HistoryRecall(turns, expected []string) (float64, string) {
	if len(expected) == 0 {
		return 1.0, "No history expected"
	}

	all := strings.ToUpper(strings.Join(turns, " "))
	var missing []string
	for _, item := range expected {
		if !strings.Contains(all, strings.ToUpper(item)) {
			missing = append(missing, item)
		}
	}

	recall := float64(len(expected)-len(missing)) / float64(len(expected))
	if len(missing) == 0 {
		return recall, "All expected history present"
	}
	return recall, fmt.Sprintf("Partial history recall (%.2f) - missing: %v", recall, missing)
}

// Evaluate scores a scenario given the retrieved document names and recent turn texts
func Evaluate(s Scenario, retrieved, turns []string) Result {
	docRecall, docDetail := DocumentRecall(retrieved, s.GroundTruth.ExpectedDocuments)
	histRecall, histDetail := HistoryRecall(turns, s.GroundTruth.ExpectedInHistory)
	rr := ReciprocalRank(retrieved, s.GroundTruth.ExpectedDocuments)

	status := "FAIL"
	if docRecall >= PassThreshold && histRecall >= PassThreshold {
		status = "PASS"
	}

	return Result{
		ScenarioID:     s.ID,
		ScenarioName:   s.Name,
		DocumentRecall: docRecall,
		ReciprocalRank: rr,
		HistoryRecall:  histRecall,
		OverallScore:   (docRecall + histRecall) / 2.0,
		Status:         status,
		Details: map[string]any{
			"document_detail": docDetail,
			"history_detail":  histDetail,
			"retrieved":       retrieved,
			"turns":           len(turns),
		},
	}
}
