package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adcraft/internal/aiclient"
	"adcraft/internal/meta"
)

type fakeGenerator struct {
	mu sync.Mutex

	namesCalls int
	names      []string
	namesErr   error

	conceptCalls int
	concepts     []aiclient.Concept
	conceptsErr  error

	visual    string
	visualErr error

	targeting aiclient.TargetingSuggestion

	// blockConcepts lets a test hold a concept call open.
	blockConcepts chan struct{}
}

func (f *fakeGenerator) GenerateBusinessNames(ctx context.Context, niche string) ([]string, error) {
	f.mu.Lock()
	f.namesCalls++
	f.mu.Unlock()
	return f.names, f.namesErr
}

func (f *fakeGenerator) GenerateImagePrompts(ctx context.Context, niche string) ([]string, error) {
	return []string{"warm morning light"}, nil
}

func (f *fakeGenerator) GenerateLogo(ctx context.Context, brandName, niche string) (string, error) {
	return "data:image/png;base64,bG9nbw==", nil
}

func (f *fakeGenerator) GenerateProductImage(ctx context.Context, description, niche string) (string, error) {
	return "a matte black coffee tin on a marble counter", nil
}

func (f *fakeGenerator) GenerateAdConcepts(ctx context.Context, brief aiclient.BrandBrief) ([]aiclient.Concept, error) {
	if f.blockConcepts != nil {
		<-f.blockConcepts
	}
	f.mu.Lock()
	f.conceptCalls++
	n := f.conceptCalls
	f.mu.Unlock()
	if f.conceptsErr != nil {
		return nil, f.conceptsErr
	}
	if f.concepts != nil {
		return f.concepts, nil
	}
	out := make([]aiclient.Concept, 3)
	for i := range out {
		out[i] = aiclient.Concept{
			Headline: fmt.Sprintf("batch %d headline %d", n, i),
			ColorHex: "2E86AB",
		}
	}
	return out, nil
}

func (f *fakeGenerator) GenerateAdVisual(ctx context.Context, req aiclient.VisualRequest) (string, error) {
	if f.visualErr != nil {
		return "", f.visualErr
	}
	if f.visual != "" {
		return f.visual, nil
	}
	return "data:image/png;base64,dmlzdWFs", nil
}

func (f *fakeGenerator) GenerateTargetingSuggestions(ctx context.Context, brief aiclient.BrandBrief, platform string) (aiclient.TargetingSuggestion, error) {
	return f.targeting, nil
}

type fakeGraph struct {
	mu    sync.Mutex
	token string

	portfolios []meta.Portfolio
	assets     []meta.Asset
	assetCalls []string

	// blockPortfolios lets a test hold a portfolio fetch open;
	// portfoliosEntered signals the fetch has started. blockSet and
	// setEntered do the same for the credential write.
	blockPortfolios   chan struct{}
	portfoliosEntered chan struct{}
	blockSet          chan struct{}
	setEntered        chan struct{}

	launchErr    error
	launchStatus string
	campaignID   string
}

func (f *fakeGraph) SetAccessToken(t string) {
	if f.setEntered != nil {
		close(f.setEntered)
	}
	if f.blockSet != nil {
		<-f.blockSet
	}
	f.mu.Lock()
	f.token = t
	f.mu.Unlock()
}
func (f *fakeGraph) AccessToken() string     { f.mu.Lock(); defer f.mu.Unlock(); return f.token }
func (f *fakeGraph) ClearAccessToken()       { f.mu.Lock(); f.token = ""; f.mu.Unlock() }

func (f *fakeGraph) GetPortfolios(ctx context.Context) []meta.Portfolio {
	if f.portfoliosEntered != nil {
		close(f.portfoliosEntered)
	}
	if f.blockPortfolios != nil {
		<-f.blockPortfolios
	}
	return f.portfolios
}

func (f *fakeGraph) GetAssets(ctx context.Context, portfolioID string) ([]meta.Asset, error) {
	f.mu.Lock()
	f.assetCalls = append(f.assetCalls, portfolioID)
	f.mu.Unlock()
	return f.assets, nil
}

func (f *fakeGraph) LaunchCampaign(ctx context.Context, adAccountID string, in meta.CampaignInput) (string, error) {
	if f.launchErr != nil {
		return "", f.launchErr
	}
	f.launchStatus = "PAUSED" // the real client hard-codes PAUSED
	if f.campaignID == "" {
		return "camp_1", nil
	}
	return f.campaignID, nil
}

func newTestEngine(t *testing.T, gen *fakeGenerator) (*Engine, *fakeGraph, *Session) {
	t.Helper()
	refs, err := NewReferenceGenerator("test-salt")
	require.NoError(t, err)

	graph := &fakeGraph{}
	e := NewEngine(gen, refs, nil)
	s := NewSession(graph)
	return e, graph, s
}

// advance walks a session to CREATIVE_GENERATION with a concept batch.
func advanceToConcepts(t *testing.T, e *Engine, s *Session) {
	t.Helper()
	require.NoError(t, e.StartBrandInput(s))
	niche := "specialty coffee"
	e.UpdateBrand(s, BrandPatch{Niche: &niche})
	_, err := e.GenerateConcepts(context.Background(), s)
	require.NoError(t, err)
}

func advanceToAssetSelection(t *testing.T, e *Engine, graph *fakeGraph, s *Session) {
	t.Helper()
	advanceToConcepts(t, e, s)
	require.NoError(t, e.SelectConcept(s, "concept-0"))
	require.NoError(t, e.EnterReview(s))
	e.SaveSettings(s)
	require.NoError(t, e.ConnectMeta(s, "state-1"))
	graph.assets = []meta.Asset{{Type: meta.AssetTypePage, ID: "pg_1"}}
	require.NoError(t, e.CompleteLogin(context.Background(), s, "tok"))
}

func TestEmptyNicheRejectedBeforeAnyNetworkCall(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)
	require.NoError(t, e.StartBrandInput(s))

	_, err := e.SuggestNames(context.Background(), s)
	assert.ErrorIs(t, err, ErrNicheRequired)

	_, err = e.GenerateConcepts(context.Background(), s)
	assert.ErrorIs(t, err, ErrNicheRequired)

	assert.Zero(t, gen.namesCalls)
	assert.Zero(t, gen.conceptCalls)
	assert.Equal(t, StepBrandInput, s.Snapshot().Step)
}

func TestConceptBatchShapeAndRegeneration(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)

	first := s.Snapshot().Concepts
	require.Len(t, first, 3)
	for i, c := range first {
		assert.Equal(t, fmt.Sprintf("concept-%d", i), c.ID)
	}

	// Regeneration replaces the batch wholesale with fresh sequential ids.
	second, err := e.GenerateConcepts(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, second, 3)
	for i, c := range second {
		assert.Equal(t, fmt.Sprintf("concept-%d", i), c.ID)
		assert.NotEqual(t, first[i].Headline, c.Headline)
	}
	assert.Len(t, s.Snapshot().Concepts, 3)
}

func TestIncompleteBatchIsRecoverable(t *testing.T) {
	gen := &fakeGenerator{concepts: []aiclient.Concept{{Headline: "only one"}}}
	e, _, s := newTestEngine(t, gen)
	require.NoError(t, e.StartBrandInput(s))
	niche := "coffee"
	e.UpdateBrand(s, BrandPatch{Niche: &niche})

	_, err := e.GenerateConcepts(context.Background(), s)
	assert.ErrorIs(t, err, ErrIncompleteBatch)
	assert.Equal(t, StepBrandInput, s.Snapshot().Step)
	assert.Empty(t, s.Snapshot().Concepts)
}

func TestGenerationFailureKeepsStep(t *testing.T) {
	gen := &fakeGenerator{conceptsErr: errors.New("upstream down")}
	e, _, s := newTestEngine(t, gen)
	require.NoError(t, e.StartBrandInput(s))
	niche := "coffee"
	e.UpdateBrand(s, BrandPatch{Niche: &niche})

	_, err := e.GenerateConcepts(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, StepBrandInput, s.Snapshot().Step)

	// Retryable: the slot is free again.
	gen.conceptsErr = nil
	_, err = e.GenerateConcepts(context.Background(), s)
	assert.NoError(t, err)
}

func TestSingleFlightPerSlot(t *testing.T) {
	gen := &fakeGenerator{blockConcepts: make(chan struct{})}
	e, _, s := newTestEngine(t, gen)
	require.NoError(t, e.StartBrandInput(s))
	niche := "coffee"
	e.UpdateBrand(s, BrandPatch{Niche: &niche})

	done := make(chan error, 1)
	go func() {
		_, err := e.GenerateConcepts(context.Background(), s)
		done <- err
	}()

	// Wait until the first call is actually in flight.
	for {
		s.mu.Lock()
		fl := s.flights[SlotConcepts]
		pending := fl != nil && fl.pending
		s.mu.Unlock()
		if pending {
			break
		}
	}

	_, err := e.GenerateConcepts(context.Background(), s)
	assert.ErrorIs(t, err, ErrSlotBusy)

	close(gen.blockConcepts)
	require.NoError(t, <-done)
	assert.Len(t, s.Snapshot().Concepts, 3)
	assert.Equal(t, 1, gen.conceptCalls)
}

func TestResetDropsInFlightResults(t *testing.T) {
	gen := &fakeGenerator{blockConcepts: make(chan struct{})}
	e, _, s := newTestEngine(t, gen)
	require.NoError(t, e.StartBrandInput(s))
	niche := "coffee"
	e.UpdateBrand(s, BrandPatch{Niche: &niche})

	done := make(chan error, 1)
	go func() {
		_, err := e.GenerateConcepts(context.Background(), s)
		done <- err
	}()
	for {
		s.mu.Lock()
		fl := s.flights[SlotConcepts]
		pending := fl != nil && fl.pending
		s.mu.Unlock()
		if pending {
			break
		}
	}

	e.Reset(s)
	close(gen.blockConcepts)

	assert.ErrorIs(t, <-done, ErrStaleResult)
	snap := s.Snapshot()
	assert.Equal(t, StepLanding, snap.Step)
	assert.Empty(t, snap.Concepts)
}

func TestTotalBudgetIsDerived(t *testing.T) {
	s := CampaignSettings{BudgetAmount: 50, Duration: 14}
	assert.InDelta(t, 700, s.TotalBudget(), 0.001)

	s.Duration = 3
	assert.InDelta(t, 150, s.TotalBudget(), 0.001)
}

func TestSettingsRoundTripUnchanged(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)

	edited := CampaignSettings{
		Objective:    meta.ObjectiveSales,
		BudgetType:   "DAILY",
		BudgetAmount: 50,
		Duration:     10,
		Currency:     "EUR",
		StartDate:    "2026-09-01",
		EndDate:      "2026-09-11",
		Locations:    "Berlin, Hamburg",
		AgeRange:     "25-40",
		Gender:       GenderWomen,
		Interests:    "espresso, latte art",
	}

	e.UpdateSettings(s, edited)
	e.SaveSettings(s)

	got, saved := e.Settings(s)
	assert.True(t, saved)
	assert.Equal(t, edited, got)
}

func TestEditInvalidatesSave(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)

	e.SaveSettings(s)
	e.UpdateSettings(s, DefaultSettings())

	_, saved := e.Settings(s)
	assert.False(t, saved)
}

func TestTargetingSuggestionReplacesAudienceAndClearsSave(t *testing.T) {
	gen := &fakeGenerator{targeting: aiclient.TargetingSuggestion{
		AgeRange:         [2]int{21, 38},
		Interests:        []string{"pour over", "crema"},
		Locations:        []string{"Portland"},
		BudgetSuggestion: 35,
	}}
	e, _, s := newTestEngine(t, gen)
	niche := "coffee"
	require.NoError(t, e.StartBrandInput(s))
	e.UpdateBrand(s, BrandPatch{Niche: &niche})
	e.SaveSettings(s)

	got, err := e.SuggestTargeting(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "21-38", got.AgeRange)
	assert.Equal(t, "pour over, crema", got.Interests)
	assert.Equal(t, "Portland", got.Locations)
	assert.InDelta(t, 35, got.BudgetAmount, 0.001)

	_, saved := e.Settings(s)
	assert.False(t, saved)
}

func TestEnterReviewRequiresSelectedConcept(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)

	assert.ErrorIs(t, e.EnterReview(s), ErrNoConceptSelected)

	require.NoError(t, e.SelectConcept(s, "concept-1"))
	require.NoError(t, e.EnterReview(s))
	assert.Equal(t, StepFinalReview, s.Snapshot().Step)
}

func TestReviewReachableWithoutComposite(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)
	require.NoError(t, e.SelectConcept(s, "concept-2"))
	require.NoError(t, e.EnterReview(s))
	assert.Empty(t, s.Snapshot().CompositeVisual)
}

func TestComposeVisualRequiresSelection(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)

	_, err := e.ComposeVisual(context.Background(), s)
	assert.ErrorIs(t, err, ErrNoConceptSelected)

	require.NoError(t, e.SelectConcept(s, "concept-0"))
	visual, err := e.ComposeVisual(context.Background(), s)
	require.NoError(t, err)
	assert.NotEmpty(t, visual)
	assert.Equal(t, visual, s.Snapshot().CompositeVisual)
}

func TestZeroPortfoliosAutoSelectsPersonal(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)
	require.NoError(t, e.SelectConcept(s, "concept-0"))
	require.NoError(t, e.EnterReview(s))
	require.NoError(t, e.ConnectMeta(s, "state-1"))

	graph.assets = []meta.Asset{{Type: meta.AssetTypeAdAccount, ID: "act_1"}}
	require.NoError(t, e.CompleteLogin(context.Background(), s, "tok"))

	snap := s.Snapshot()
	assert.Equal(t, StepAssetSelection, snap.Step)
	assert.Equal(t, meta.PersonalPortfolioID, snap.SelectedPortfolioID)
	assert.Equal(t, []string{meta.PersonalPortfolioID}, graph.assetCalls)
	assert.Len(t, snap.Assets, 1)
	require.Len(t, snap.Portfolios, 1)
	assert.Equal(t, meta.PersonalPortfolio(), snap.Portfolios[0])
}

func TestResetDuringLoginLeavesNoCredential(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)
	require.NoError(t, e.SelectConcept(s, "concept-0"))
	require.NoError(t, e.EnterReview(s))
	require.NoError(t, e.ConnectMeta(s, "state-1"))

	graph.blockPortfolios = make(chan struct{})
	graph.portfoliosEntered = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- e.CompleteLogin(context.Background(), s, "tok")
	}()

	<-graph.portfoliosEntered
	e.Reset(s)
	close(graph.blockPortfolios)

	assert.ErrorIs(t, <-done, ErrStaleResult)

	// A reset session must never come back reporting a live Meta
	// connection, no matter when the login result lands.
	snap := s.Snapshot()
	assert.Equal(t, StepLanding, snap.Step)
	assert.False(t, snap.MetaConnected)
	assert.Empty(t, graph.AccessToken())
}

func TestStaleLoginTokenCannotReviveResetSession(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)
	require.NoError(t, e.SelectConcept(s, "concept-0"))
	require.NoError(t, e.EnterReview(s))
	require.NoError(t, e.ConnectMeta(s, "state-1"))

	graph.setEntered = make(chan struct{})
	graph.blockSet = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- e.CompleteLogin(context.Background(), s, "tok")
	}()
	<-graph.setEntered

	resetDone := make(chan struct{})
	go func() {
		e.Reset(s)
		close(resetDone)
	}()

	// Give a racing reset the chance to finish while the credential
	// write is still held open.
	select {
	case <-resetDone:
	case <-time.After(50 * time.Millisecond):
	}
	close(graph.blockSet)
	<-resetDone

	assert.ErrorIs(t, <-done, ErrStaleResult)

	snap := s.Snapshot()
	assert.Equal(t, StepLanding, snap.Step)
	assert.False(t, snap.MetaConnected)
	assert.Empty(t, graph.AccessToken())
}

func TestPortfoliosListedBeforeAssetFetch(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToConcepts(t, e, s)
	require.NoError(t, e.SelectConcept(s, "concept-0"))
	require.NoError(t, e.EnterReview(s))
	require.NoError(t, e.ConnectMeta(s, "state-1"))

	graph.portfolios = []meta.Portfolio{{ID: "bm_1", Name: "Acme"}}
	require.NoError(t, e.CompleteLogin(context.Background(), s, "tok"))

	snap := s.Snapshot()
	assert.Equal(t, StepAssetSelection, snap.Step)
	assert.Empty(t, graph.assetCalls)

	graph.assets = []meta.Asset{{Type: meta.AssetTypePage, ID: "pg_1"}}
	_, err := e.SelectPortfolio(context.Background(), s, "bm_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"bm_1"}, graph.assetCalls)
}

func TestLaunchGates(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToAssetSelection(t, e, graph, s)

	// All three asset categories are required.
	_, err := e.Launch(context.Background(), s)
	assert.ErrorIs(t, err, ErrAssetsIncomplete)

	require.NoError(t, e.SelectAssets(s, SelectedAssets{
		PageID: "pg_1", InstagramID: "ig_1", AdAccountID: "act_1",
	}))

	// Editing settings after saving re-gates the launch.
	e.UpdateSettings(s, DefaultSettings())
	_, err = e.Launch(context.Background(), s)
	assert.ErrorIs(t, err, ErrSettingsNotSaved)

	e.SaveSettings(s)
	result, err := e.Launch(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "camp_1", result.CampaignID)
	assert.NotEmpty(t, result.ReferenceCode)
	assert.Equal(t, "PAUSED", graph.launchStatus)
	assert.Equal(t, StepSuccess, s.Snapshot().Step)
}

func TestLaunchFailureReturnsToAssetSelection(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToAssetSelection(t, e, graph, s)
	require.NoError(t, e.SelectAssets(s, SelectedAssets{
		PageID: "pg_1", InstagramID: "ig_1", AdAccountID: "act_1",
	}))

	graph.launchErr = errors.New("Invalid parameter")
	_, err := e.Launch(context.Background(), s)
	require.Error(t, err)
	assert.Equal(t, StepAssetSelection, s.Snapshot().Step)

	// Retry after the failure succeeds from the same step.
	graph.launchErr = nil
	_, err = e.Launch(context.Background(), s)
	assert.NoError(t, err)
}

func TestResetReinitializesEverything(t *testing.T) {
	gen := &fakeGenerator{}
	e, graph, s := newTestEngine(t, gen)
	advanceToAssetSelection(t, e, graph, s)
	require.NoError(t, e.SelectAssets(s, SelectedAssets{
		PageID: "pg_1", InstagramID: "ig_1", AdAccountID: "act_1",
	}))
	_, err := e.Launch(context.Background(), s)
	require.NoError(t, err)

	e.Reset(s)
	snap := s.Snapshot()
	assert.Equal(t, StepLanding, snap.Step)
	assert.Equal(t, BrandProfile{}, snap.Brand)
	assert.Empty(t, snap.Concepts)
	assert.Empty(t, snap.CampaignID)
	assert.Equal(t, DefaultSettings(), snap.Settings)
	assert.False(t, snap.SettingsSaved)
	assert.False(t, snap.MetaConnected)
	assert.Empty(t, graph.AccessToken())
}

func TestLogoPositionClampAndDefault(t *testing.T) {
	gen := &fakeGenerator{}
	e, _, s := newTestEngine(t, gen)

	e.SetLogoImage(s, "https://res.cloudinary.com/demo/logo.png")
	snap := s.Snapshot()
	require.NotNil(t, snap.LogoPosition)
	assert.InDelta(t, 6, snap.LogoPosition.X, 0.001)
	assert.InDelta(t, 4, snap.LogoPosition.Y, 0.001)

	p := e.SetLogoPosition(s, 120, -3)
	assert.InDelta(t, 90, p.X, 0.001)
	assert.InDelta(t, 0, p.Y, 0.001)
}

func TestReferenceCodes(t *testing.T) {
	refs, err := NewReferenceGenerator("salt")
	require.NoError(t, err)

	a, b := refs.Generate(), refs.Generate()
	assert.NotEqual(t, a, b)
	assert.Contains(t, a, "AD-")
}
