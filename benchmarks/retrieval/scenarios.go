// ABOUTME: Benchmark scenarios for retrieval and context assembly
// ABOUTME: Each scenario seeds documents and turns, then checks what the final query recovers

package retrieval

// Scenario is one benchmark case
type Scenario struct {
	ID          string
	Name        string
	Description string
	Documents   []Document

	// Turns are user messages sent before Query, each followed by Reply
	Turns []string
	Reply string
	Query string
	K     int

	GroundTruth GroundTruth
}

// Document is a seeded document
type Document struct {
	Name string
	Text string
}

// GroundTruth is what the final query should recover
type GroundTruth struct {
	// ExpectedDocuments are document names that must appear in the top K
	ExpectedDocuments []string
	// ExpectedInHistory are strings that must appear in the assembled recent turns
	ExpectedInHistory []string
}

// Result is the scored outcome of one scenario
type Result struct {
	ScenarioID     string         `json:"scenario_id"`
	ScenarioName   string         `json:"scenario_name"`
	DocumentRecall float64        `json:"document_recall"`
	ReciprocalRank float64        `json:"reciprocal_rank"`
	HistoryRecall  float64        `json:"history_recall"`
	OverallScore   float64        `json:"overall_score"`
	Status         string         `json:"status"`
	Details        map[string]any `json:"details,omitempty"`
}

// SkyAndBananas is the minimal ranking check
func SkyAndBananas() Scenario {
	return Scenario{
		ID:          "1a",
		Name:        "Single relevant document",
		Description: "One document mentions the sky; the query asks about the sky's color.",
		Documents: []Document{
			{Name: "sky", Text: "The sky is blue on a clear day."},
			{Name: "bananas", Text: "Bananas are yellow and grow in tropical climates."},
			{Name: "coffee", Text: "Espresso is brewed by forcing hot water through ground coffee."},
		},
		Query: "What color is the sky?",
		K:     1,
		GroundTruth: GroundTruth{
			ExpectedDocuments: []string{"sky"},
			ExpectedInHistory: []string{"What color is the sky?"},
		},
	}
}

// TopicalRetrieval checks that the top K covers every on-topic document
func TopicalRetrieval() Scenario {
	return Scenario{
		ID:          "2a",
		Name:        "Multiple relevant documents",
		Description: "Two of five documents describe deploying the service; both should rank above the rest.",
		Documents: []Document{
			{Name: "release.md", Text: "To deploy the service, tag a release and the pipeline builds the container image."},
			{Name: "kubernetes.md", Text: "Kubernetes runs the service; deploy new pods with a rolling update of the container."},
			{Name: "pasta.md", Text: "Boil salted water, cook the pasta for nine minutes, then toss with olive oil."},
			{Name: "garden.md", Text: "Tomatoes need full sun and regular watering through the summer."},
			{Name: "budget.md", Text: "The quarterly budget review covers travel and equipment spending."},
		},
		Query: "How do I deploy the service container?",
		K:     2,
		GroundTruth: GroundTruth{
			ExpectedDocuments: []string{"release.md", "kubernetes.md"},
		},
	}
}

// ConversationContinuity checks that earlier turns reach the assembled context
func ConversationContinuity() Scenario {
	return Scenario{
		ID:          "3a",
		Name:        "Conversation continuity",
		Description: "Facts stated in earlier turns are still in the recent history when a later question depends on them.",
		Documents: []Document{
			{Name: "lisbon", Text: "Lisbon trams climb the hills of Alfama; tram 28 is the classic route."},
			{Name: "oslo", Text: "Oslo winters are long and dark; the fjord freezes near the shore."},
		},
		Turns: []string{
			"My name is Sam and I live in Lisbon.",
			"My favorite color is green.",
		},
		Reply: "Noted.",
		Query: "Which tram route should I take in Lisbon?",
		K:     1,
		GroundTruth: GroundTruth{
			ExpectedDocuments: []string{"lisbon"},
			ExpectedInHistory: []string{"Sam", "green", "tram route"},
		},
	}
}

// All returns every scenario
func All() []Scenario {
	return []Scenario{
		SkyAndBananas(),
		TopicalRetrieval(),
		ConversationContinuity(),
	}
}

// ByID finds a scenario
func ByID(id string) (Scenario, bool) {
	for _, s := range All() {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}
