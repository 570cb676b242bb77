package workflow

import (
	"errors"
	"fmt"
	"strings"

	"adcraft/internal/meta"
)

// Step is the wizard's position in the pipeline. Exactly one step is
// active per session; there is no persistence across restarts.
type Step string

const (
	StepLanding            Step = "LANDING"
	StepBrandInput         Step = "BRAND_INPUT"
	StepCreativeGeneration Step = "CREATIVE_GENERATION"
	StepFinalReview        Step = "FINAL_REVIEW"
	StepMetaConnect        Step = "META_CONNECT"
	StepAssetSelection     Step = "ASSET_SELECTION"
	StepLaunching          Step = "LAUNCHING"
	StepSuccess            Step = "SUCCESS"
)

// Slot names a logical operation category for single-flight control.
// Each slot admits at most one in-flight request; a second call while
// one is pending is rejected, not queued.
type Slot string

const (
	SlotNames        Slot = "names"
	SlotImagePrompts Slot = "image_prompts"
	SlotLogo         Slot = "logo"
	SlotProductImage Slot = "product_image"
	SlotConcepts     Slot = "concepts"
	SlotVisual       Slot = "visual"
	SlotTargeting    Slot = "targeting"
	SlotLogin        Slot = "login" // covers the whole login exchange, portfolio fetch included
	SlotAssets       Slot = "assets"
	SlotLaunch       Slot = "launch"
)

var (
	ErrNicheRequired      = errors.New("workflow: business niche is required before generation")
	ErrSlotBusy           = errors.New("workflow: a request for this operation is already in flight")
	ErrStaleResult        = errors.New("workflow: result superseded, not applied")
	ErrInvalidTransition  = errors.New("workflow: action not allowed in the current step")
	ErrNoConceptSelected  = errors.New("workflow: select an ad concept first")
	ErrUnknownConcept     = errors.New("workflow: no concept with that id in the current batch")
	ErrIncompleteBatch    = errors.New("workflow: the model returned an incomplete concept batch, try again")
	ErrSettingsNotSaved   = errors.New("workflow: save the campaign settings before launching")
	ErrAssetsIncomplete   = errors.New("workflow: select a page, an Instagram account and an ad account first")
	ErrNotConnected       = errors.New("workflow: connect a Meta account first")
)

// BrandProfile is the business identity and the creative raw material
// for every generation call. It lives in memory for the session only.
type BrandProfile struct {
	BusinessName   string `json:"businessName"`
	Niche          string `json:"niche"`
	Description    string `json:"description"`
	TargetAudience string `json:"targetAudience"`

	// Encoded-image references: Cloudinary secure URLs for uploads,
	// data URLs or descriptors for generated imagery.
	ProductImage string `json:"productImage,omitempty"`
	LogoImage    string `json:"logoImage,omitempty"`

	// Descriptors accompany the images into composite requests.
	LogoDescription    string `json:"logoDescription,omitempty"`
	ProductDescription string `json:"productDescription,omitempty"`
}

// AdConcept is one candidate advertisement. Ids are unique within a
// batch and reassigned wholesale on every regeneration.
type AdConcept struct {
	ID                string `json:"id"`
	Headline          string `json:"headline"`
	PrimaryText       string `json:"primaryText"`
	CTA               string `json:"cta"`
	VisualDescription string `json:"visualDescription"`
	DesignVibe        string `json:"designVibe"`
	ColorHex          string `json:"colorHex"`
}

// ConceptBatchSize is the number of concepts one generation call yields.
const ConceptBatchSize = 3

// ConceptID renders the sequential id for position i in a batch.
func ConceptID(i int) string {
	return fmt.Sprintf("concept-%d", i)
}

// Gender options for audience targeting.
const (
	GenderAll   = "ALL"
	GenderMen   = "MEN"
	GenderWomen = "WOMEN"
)

// CampaignSettings is the advertising configuration. It must be
// explicitly saved before a launch is permitted; an AI targeting
// suggestion replaces the audience fields wholesale and clears the
// saved flag.
type CampaignSettings struct {
	Objective    meta.Objective `json:"objective"`
	BudgetType   string         `json:"budgetType"`
	BudgetAmount float64        `json:"budgetAmount"`
	Duration     int            `json:"duration"`
	Currency     string         `json:"currency"`
	StartDate    string         `json:"startDate"`
	EndDate      string         `json:"endDate"`
	Locations    string         `json:"locations"`
	AgeRange     string         `json:"ageRange"`
	Gender       string         `json:"gender"`
	Interests    string         `json:"interests"`
}

// TotalBudget is derived, never stored.
func (s CampaignSettings) TotalBudget() float64 {
	return s.BudgetAmount * float64(s.Duration)
}

// DefaultSettings are the values a fresh session starts from.
func DefaultSettings() CampaignSettings {
	return CampaignSettings{
		Objective:    meta.ObjectiveTraffic,
		BudgetType:   "DAILY",
		BudgetAmount: 20,
		Duration:     7,
		Currency:     "USD",
		AgeRange:     "18-65",
		Gender:       GenderAll,
	}
}

// SelectedAssets are the three launch targets chosen by the user.
type SelectedAssets struct {
	PageID      string `json:"pageId"`
	InstagramID string `json:"instagramId"`
	AdAccountID string `json:"adAccountId"`
}

// Complete reports whether all three asset categories are selected.
func (a SelectedAssets) Complete() bool {
	return a.PageID != "" && a.InstagramID != "" && a.AdAccountID != ""
}

// LaunchResult is returned once the paused campaign container exists.
type LaunchResult struct {
	CampaignID    string `json:"campaignId"`
	ReferenceCode string `json:"referenceCode"`
}

func campaignName(brand BrandProfile) string {
	name := strings.TrimSpace(brand.BusinessName)
	if name == "" {
		name = strings.TrimSpace(brand.Niche)
	}
	if name == "" {
		name = "AdCraft"
	}
	return name + " Campaign"
}
