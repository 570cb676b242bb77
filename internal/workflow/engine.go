package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"adcraft/internal/aiclient"
	"adcraft/internal/layout"
	"adcraft/internal/meta"
)

// Generator is the AI proxy surface the engine drives. Results are
// non-deterministic; the engine never assumes repeatability.
type Generator interface {
	GenerateBusinessNames(ctx context.Context, niche string) ([]string, error)
	GenerateImagePrompts(ctx context.Context, niche string) ([]string, error)
	GenerateLogo(ctx context.Context, brandName, niche string) (string, error)
	GenerateProductImage(ctx context.Context, description, niche string) (string, error)
	GenerateAdConcepts(ctx context.Context, brief aiclient.BrandBrief) ([]aiclient.Concept, error)
	GenerateAdVisual(ctx context.Context, req aiclient.VisualRequest) (string, error)
	GenerateTargetingSuggestions(ctx context.Context, brief aiclient.BrandBrief, platform string) (aiclient.TargetingSuggestion, error)
}

// GraphClient is the ads-graph surface one session owns.
type GraphClient interface {
	SetAccessToken(token string)
	AccessToken() string
	ClearAccessToken()
	GetPortfolios(ctx context.Context) []meta.Portfolio
	GetAssets(ctx context.Context, portfolioID string) ([]meta.Asset, error)
	LaunchCampaign(ctx context.Context, adAccountID string, in meta.CampaignInput) (string, error)
}

// Engine enforces the step machine, the per-slot single-flight rule and
// sequence-fenced result application over session aggregates. It holds
// no per-session state itself.
type Engine struct {
	gen    Generator
	refs   *ReferenceGenerator
	logger *zap.SugaredLogger
}

func NewEngine(gen Generator, refs *ReferenceGenerator, logger *zap.SugaredLogger) *Engine {
	return &Engine{gen: gen, refs: refs, logger: logger}
}

// StartBrandInput moves a fresh session off the landing step.
func (e *Engine) StartBrandInput(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepLanding && s.Step != StepBrandInput {
		return ErrInvalidTransition
	}
	s.Step = StepBrandInput
	return nil
}

// BrandPatch carries optional brand-profile field updates.
type BrandPatch struct {
	BusinessName   *string
	Niche          *string
	Description    *string
	TargetAudience *string
}

// UpdateBrand applies user edits to the brand profile.
func (e *Engine) UpdateBrand(s *Session, patch BrandPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.BusinessName != nil {
		s.Brand.BusinessName = strings.TrimSpace(*patch.BusinessName)
	}
	if patch.Niche != nil {
		s.Brand.Niche = strings.TrimSpace(*patch.Niche)
	}
	if patch.Description != nil {
		s.Brand.Description = *patch.Description
	}
	if patch.TargetAudience != nil {
		s.Brand.TargetAudience = *patch.TargetAudience
	}
}

// SetLogoImage records an uploaded or generated logo reference. A
// position is always defined while a logo is present.
func (e *Engine) SetLogoImage(s *Session, ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Brand.LogoImage = ref
	if s.LogoPosition == nil {
		p := layout.DefaultPosition
		s.LogoPosition = &p
	}
}

// SetProductImage records an uploaded or generated product reference.
func (e *Engine) SetProductImage(s *Session, ref string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Brand.ProductImage = ref
}

// SetLogoPosition applies an interactive drag update, clamped so the
// logo stays inside the frame.
func (e *Engine) SetLogoPosition(s *Session, x, y float64) layout.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := layout.Clamp(layout.Position{X: x, Y: y})
	s.LogoPosition = &p
	return p
}

// nicheLocked validates the generation precondition. Callers hold s.mu.
func nicheLocked(s *Session) (string, error) {
	niche := strings.TrimSpace(s.Brand.Niche)
	if niche == "" {
		return "", ErrNicheRequired
	}
	return niche, nil
}

// SuggestNames requests business name ideas (slot: names).
func (e *Engine) SuggestNames(ctx context.Context, s *Session) ([]string, error) {
	s.mu.Lock()
	niche, err := nicheLocked(s)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	tk, err := s.beginFlight(SlotNames)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	names, genErr := e.gen.GenerateBusinessNames(ctx, niche)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return nil, ErrStaleResult
	}
	if genErr != nil {
		return nil, genErr
	}
	s.NameSuggestions = names
	return names, nil
}

// SuggestImagePrompts requests imagery directions (slot: image_prompts).
func (e *Engine) SuggestImagePrompts(ctx context.Context, s *Session) ([]string, error) {
	s.mu.Lock()
	niche, err := nicheLocked(s)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	tk, err := s.beginFlight(SlotImagePrompts)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	prompts, genErr := e.gen.GenerateImagePrompts(ctx, niche)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return nil, ErrStaleResult
	}
	if genErr != nil {
		return nil, genErr
	}
	s.PromptSuggestions = prompts
	return prompts, nil
}

// GenerateLogo produces a logo for the brand (slot: logo).
func (e *Engine) GenerateLogo(ctx context.Context, s *Session) (string, error) {
	s.mu.Lock()
	niche, err := nicheLocked(s)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	tk, err := s.beginFlight(SlotLogo)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	brandName := s.Brand.BusinessName
	s.mu.Unlock()

	desc, genErr := e.gen.GenerateLogo(ctx, brandName, niche)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return "", ErrStaleResult
	}
	if genErr != nil {
		return "", genErr
	}
	s.Brand.LogoDescription = desc
	if isImageRef(desc) {
		s.Brand.LogoImage = desc
		if s.LogoPosition == nil {
			p := layout.DefaultPosition
			s.LogoPosition = &p
		}
	}
	return desc, nil
}

// GenerateProductImage produces a product shot (slot: product_image).
func (e *Engine) GenerateProductImage(ctx context.Context, s *Session) (string, error) {
	s.mu.Lock()
	niche, err := nicheLocked(s)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	tk, err := s.beginFlight(SlotProductImage)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	description := s.Brand.Description
	if description == "" {
		description = s.Brand.BusinessName
	}
	s.mu.Unlock()

	desc, genErr := e.gen.GenerateProductImage(ctx, description, niche)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return "", ErrStaleResult
	}
	if genErr != nil {
		return "", genErr
	}
	s.Brand.ProductDescription = desc
	if isImageRef(desc) {
		s.Brand.ProductImage = desc
	}
	return desc, nil
}

func isImageRef(v string) bool {
	return strings.HasPrefix(v, "data:image/") ||
		strings.HasPrefix(v, "http://") ||
		strings.HasPrefix(v, "https://")
}

// GenerateConcepts produces (or wholesale-replaces) the concept batch
// (slot: concepts). The first successful batch moves the session from
// BRAND_INPUT to CREATIVE_GENERATION; on any failure the step does not
// change and the prior batch survives.
func (e *Engine) GenerateConcepts(ctx context.Context, s *Session) ([]AdConcept, error) {
	s.mu.Lock()
	if s.Step != StepBrandInput && s.Step != StepCreativeGeneration {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	niche, err := nicheLocked(s)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	tk, err := s.beginFlight(SlotConcepts)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	brief := aiclient.BrandBrief{
		Name:           s.Brand.BusinessName,
		Niche:          niche,
		Description:    s.Brand.Description,
		TargetAudience: s.Brand.TargetAudience,
	}
	s.mu.Unlock()

	drafts, genErr := e.gen.GenerateAdConcepts(ctx, brief)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return nil, ErrStaleResult
	}
	if genErr != nil {
		return nil, genErr
	}
	if len(drafts) < ConceptBatchSize {
		return nil, ErrIncompleteBatch
	}

	batch := make([]AdConcept, ConceptBatchSize)
	for i := 0; i < ConceptBatchSize; i++ {
		d := drafts[i]
		batch[i] = AdConcept{
			ID:                ConceptID(i),
			Headline:          d.Headline,
			PrimaryText:       d.PrimaryText,
			CTA:               d.CTA,
			VisualDescription: d.VisualDescription,
			DesignVibe:        d.DesignVibe,
			ColorHex:          d.ColorHex,
		}
	}

	s.Concepts = batch
	s.SelectedConceptID = ""
	s.CompositeVisual = ""
	s.Step = StepCreativeGeneration
	return batch, nil
}

// SelectConcept promotes one concept from the current batch.
func (e *Engine) SelectConcept(s *Session, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepCreativeGeneration && s.Step != StepFinalReview {
		return ErrInvalidTransition
	}
	for _, c := range s.Concepts {
		if c.ID == id {
			s.SelectedConceptID = id
			return nil
		}
	}
	return ErrUnknownConcept
}

// ComposeVisual requests the final composited creative for the selected
// concept (slot: visual). The placement guidance is only attached when
// a logo image is present.
func (e *Engine) ComposeVisual(ctx context.Context, s *Session) (string, error) {
	s.mu.Lock()
	if s.Step != StepCreativeGeneration && s.Step != StepFinalReview {
		s.mu.Unlock()
		return "", ErrInvalidTransition
	}
	selected, ok := selectedConceptLocked(s)
	if !ok {
		s.mu.Unlock()
		return "", ErrNoConceptSelected
	}
	tk, err := s.beginFlight(SlotVisual)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}

	req := aiclient.VisualRequest{
		BrandName:          s.Brand.BusinessName,
		LogoDescription:    s.Brand.LogoDescription,
		ProductDescription: s.Brand.ProductDescription,
		AdConcept: aiclient.Concept{
			Headline:          selected.Headline,
			PrimaryText:       selected.PrimaryText,
			CTA:               selected.CTA,
			VisualDescription: selected.VisualDescription,
			DesignVibe:        selected.DesignVibe,
			ColorHex:          selected.ColorHex,
		},
	}
	if s.Brand.LogoImage != "" {
		req.PlacementGuidance = layout.Guidance(s.LogoPosition)
	}
	s.mu.Unlock()

	visual, genErr := e.gen.GenerateAdVisual(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return "", ErrStaleResult
	}
	if genErr != nil {
		return "", genErr
	}
	s.CompositeVisual = visual
	return visual, nil
}

func selectedConceptLocked(s *Session) (AdConcept, bool) {
	if s.SelectedConceptID == "" {
		return AdConcept{}, false
	}
	for _, c := range s.Concepts {
		if c.ID == s.SelectedConceptID {
			return c, true
		}
	}
	return AdConcept{}, false
}

// EnterReview moves to FINAL_REVIEW. A selected concept is required; a
// rendered composite is not.
func (e *Engine) EnterReview(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepCreativeGeneration {
		return ErrInvalidTransition
	}
	if _, ok := selectedConceptLocked(s); !ok {
		return ErrNoConceptSelected
	}
	s.Step = StepFinalReview
	return nil
}

// UpdateSettings replaces the campaign settings with the user's edits.
// Any edit invalidates a previous save.
func (e *Engine) UpdateSettings(s *Session, settings CampaignSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Settings = settings
	s.SettingsSaved = false
}

// SaveSettings sets the confirmation flag that gates the launch.
func (e *Engine) SaveSettings(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SettingsSaved = true
}

// Settings returns the current settings verbatim. Nothing between an
// explicit edit (or AI suggestion) and launch normalizes them.
func (e *Engine) Settings(s *Session) (CampaignSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Settings, s.SettingsSaved
}

// SuggestTargeting asks for an audience recommendation and replaces the
// audience-facing settings wholesale (slot: targeting). The budget is
// only adopted when the model suggests one.
func (e *Engine) SuggestTargeting(ctx context.Context, s *Session) (CampaignSettings, error) {
	s.mu.Lock()
	niche, err := nicheLocked(s)
	if err != nil {
		s.mu.Unlock()
		return CampaignSettings{}, err
	}
	tk, err := s.beginFlight(SlotTargeting)
	if err != nil {
		s.mu.Unlock()
		return CampaignSettings{}, err
	}
	brief := aiclient.BrandBrief{
		Name:           s.Brand.BusinessName,
		Niche:          niche,
		Description:    s.Brand.Description,
		TargetAudience: s.Brand.TargetAudience,
	}
	s.mu.Unlock()

	suggestion, genErr := e.gen.GenerateTargetingSuggestions(ctx, brief, "Meta")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return CampaignSettings{}, ErrStaleResult
	}
	if genErr != nil {
		return CampaignSettings{}, genErr
	}

	if suggestion.AgeRange[0] > 0 && suggestion.AgeRange[1] > 0 {
		s.Settings.AgeRange = fmt.Sprintf("%d-%d", suggestion.AgeRange[0], suggestion.AgeRange[1])
	}
	if len(suggestion.Interests) > 0 {
		s.Settings.Interests = strings.Join(suggestion.Interests, ", ")
	}
	if len(suggestion.Locations) > 0 {
		s.Settings.Locations = strings.Join(suggestion.Locations, ", ")
	}
	if suggestion.BudgetSuggestion > 0 {
		s.Settings.BudgetAmount = suggestion.BudgetSuggestion
	}
	s.SettingsSaved = false
	return s.Settings, nil
}

// ConnectMeta moves to META_CONNECT and records the signed OAuth state
// for the login attempt. The login itself completes out-of-band.
func (e *Engine) ConnectMeta(s *Session, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepFinalReview && s.Step != StepMetaConnect {
		return ErrInvalidTransition
	}
	s.Step = StepMetaConnect
	s.OAuthState = state
	return nil
}

// CompleteLogin stores the bearer token and fetches portfolios (slot:
// login). Once the list is fetched the session moves to ASSET_SELECTION;
// an account with zero portfolios auto-selects the synthetic personal
// portfolio and fetches its assets immediately.
func (e *Engine) CompleteLogin(ctx context.Context, s *Session, token string) error {
	s.mu.Lock()
	if s.Step != StepMetaConnect {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	tk, err := s.beginFlight(SlotLogin)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	graph := s.Graph
	// The credential is written before the lock is released: a reset
	// landing after dispatch must not see a stale token revive a
	// connection the user already discarded.
	graph.SetAccessToken(token)
	s.mu.Unlock()

	portfolios := graph.GetPortfolios(ctx)

	var (
		assets   []meta.Asset
		fetchErr error
	)
	if len(portfolios) == 0 {
		assets, fetchErr = graph.GetAssets(ctx, meta.PersonalPortfolioID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return ErrStaleResult
	}
	if fetchErr != nil {
		return fetchErr
	}

	s.Portfolios = portfolios
	s.Step = StepAssetSelection
	if len(portfolios) == 0 {
		// The synthetic personal portfolio is listed so the selection
		// shows up in the snapshot like any other portfolio.
		s.Portfolios = []meta.Portfolio{meta.PersonalPortfolio()}
		s.SelectedPortfolioID = meta.PersonalPortfolioID
		s.Assets = assets
	}
	return nil
}

// SelectPortfolio picks a portfolio and fetches its assets (slot:
// assets).
func (e *Engine) SelectPortfolio(ctx context.Context, s *Session, portfolioID string) ([]meta.Asset, error) {
	s.mu.Lock()
	if s.Step != StepAssetSelection {
		s.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	if s.Graph.AccessToken() == "" {
		s.mu.Unlock()
		return nil, ErrNotConnected
	}
	tk, err := s.beginFlight(SlotAssets)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	graph := s.Graph
	s.mu.Unlock()

	assets, fetchErr := graph.GetAssets(ctx, portfolioID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return nil, ErrStaleResult
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	s.SelectedPortfolioID = portfolioID
	s.Assets = assets
	s.Selected = SelectedAssets{}
	return assets, nil
}

// SelectAssets records the chosen launch targets.
func (e *Engine) SelectAssets(s *Session, sel SelectedAssets) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Step != StepAssetSelection {
		return ErrInvalidTransition
	}
	s.Selected = sel
	return nil
}

// Launch creates the paused campaign container (slot: launch). It is
// gated on saved settings and a complete asset selection; a failure
// returns the session to ASSET_SELECTION, never to an earlier step.
func (e *Engine) Launch(ctx context.Context, s *Session) (LaunchResult, error) {
	s.mu.Lock()
	if s.Step != StepAssetSelection {
		s.mu.Unlock()
		return LaunchResult{}, ErrInvalidTransition
	}
	if !s.SettingsSaved {
		s.mu.Unlock()
		return LaunchResult{}, ErrSettingsNotSaved
	}
	if !s.Selected.Complete() {
		s.mu.Unlock()
		return LaunchResult{}, ErrAssetsIncomplete
	}
	tk, err := s.beginFlight(SlotLaunch)
	if err != nil {
		s.mu.Unlock()
		return LaunchResult{}, err
	}
	s.Step = StepLaunching
	graph := s.Graph
	input := meta.CampaignInput{
		Name:         campaignName(s.Brand),
		Objective:    s.Settings.Objective,
		BudgetType:   s.Settings.BudgetType,
		BudgetAmount: s.Settings.BudgetAmount,
		Currency:     s.Settings.Currency,
	}
	adAccountID := s.Selected.AdAccountID
	s.mu.Unlock()

	campaignID, launchErr := graph.LaunchCampaign(ctx, adAccountID, input)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleFlight(tk) {
		return LaunchResult{}, ErrStaleResult
	}
	if launchErr != nil {
		s.Step = StepAssetSelection
		return LaunchResult{}, launchErr
	}

	s.Step = StepSuccess
	s.CampaignID = campaignID
	s.ReferenceCode = e.refs.Generate()
	if e.logger != nil {
		e.logger.Infow("campaign launched paused",
			"session", s.ID, "campaign", campaignID, "ref", s.ReferenceCode)
	}
	return LaunchResult{CampaignID: campaignID, ReferenceCode: s.ReferenceCode}, nil
}

// Reset discards all in-memory state, SUCCESS (or anywhere) back to
// LANDING. Full re-initialization, not partial.
func (e *Engine) Reset(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}
