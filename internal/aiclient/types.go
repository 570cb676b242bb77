package aiclient

// Concept is one candidate advertisement as returned by the
// concept-generation operation. Batch identifiers are assigned by the
// caller, not by the proxy.
type Concept struct {
	Headline          string `json:"headline"`
	PrimaryText       string `json:"primaryText"`
	CTA               string `json:"cta"`
	VisualDescription string `json:"visualDescription"`
	DesignVibe        string `json:"designVibe"`
	ColorHex          string `json:"colorHex"`
}

// BrandBrief is the brand aggregate sent with concept and targeting
// requests.
type BrandBrief struct {
	Name           string `json:"name"`
	Niche          string `json:"niche"`
	Description    string `json:"description"`
	TargetAudience string `json:"targetAudience"`
}

// VisualRequest describes a composite-visual request: the selected
// concept plus placement guidance for any logo or product imagery.
type VisualRequest struct {
	BrandName          string  `json:"brandName"`
	LogoDescription    string  `json:"logoDescription"`
	ProductDescription string  `json:"productDescription"`
	AdConcept          Concept `json:"adConcept"`
	PlacementGuidance  string  `json:"placementGuidance,omitempty"`
}

// TargetingSuggestion is the audience recommendation for one platform.
type TargetingSuggestion struct {
	AgeRange         [2]int   `json:"ageRange"`
	Interests        []string `json:"interests"`
	Behaviors        []string `json:"behaviors"`
	Locations        []string `json:"locations"`
	Platforms        []string `json:"platforms"`
	BudgetSuggestion float64  `json:"budgetSuggestion"`
}
