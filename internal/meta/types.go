package meta

// PersonalPortfolioID is the synthetic portfolio used when the
// authenticated identity has no business-manager portfolios. Assets are
// fetched for the personal context instead.
const PersonalPortfolioID = "personal"

// Portfolio is a business-manager grouping of pages and ad accounts.
type Portfolio struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PersonalPortfolio builds the synthetic fallback portfolio.
func PersonalPortfolio() Portfolio {
	return Portfolio{ID: PersonalPortfolioID, Name: "Personal Account"}
}

// AssetType discriminates records in the flattened asset list.
type AssetType string

const (
	AssetTypePage      AssetType = "page"
	AssetTypeInstagram AssetType = "instagram"
	AssetTypeAdAccount AssetType = "ad_account"
)

// Asset is a launch target: a page, a linked Instagram business
// account, or an ad account.
type Asset struct {
	Type AssetType `json:"type"`
	ID   string    `json:"id"`
	Name string    `json:"name"`

	// PageAccessToken is only present on page assets.
	PageAccessToken string `json:"-"`
	// ParentPageID ties an Instagram account to the page it is linked to.
	ParentPageID string `json:"parentPageId,omitempty"`
}

// Objective is the simplified campaign objective set exposed to users.
type Objective string

const (
	ObjectiveAwareness  Objective = "AWARENESS"
	ObjectiveTraffic    Objective = "TRAFFIC"
	ObjectiveEngagement Objective = "ENGAGEMENT"
	ObjectiveLeads      Objective = "LEADS"
	ObjectiveSales      Objective = "SALES"
)

// graphObjective maps the simplified set onto Graph API outcome
// objectives. Unknown values fall back to traffic.
func graphObjective(o Objective) string {
	switch o {
	case ObjectiveAwareness:
		return "OUTCOME_AWARENESS"
	case ObjectiveTraffic:
		return "OUTCOME_TRAFFIC"
	case ObjectiveEngagement:
		return "OUTCOME_ENGAGEMENT"
	case ObjectiveLeads:
		return "OUTCOME_LEADS"
	case ObjectiveSales:
		return "OUTCOME_SALES"
	default:
		return "OUTCOME_TRAFFIC"
	}
}

// CampaignInput carries the fields the graph client consumes when
// creating the campaign container.
type CampaignInput struct {
	Name         string
	Objective    Objective
	BudgetType   string // DAILY or LIFETIME
	BudgetAmount float64
	Currency     string
}
