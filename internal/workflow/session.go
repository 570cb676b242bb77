package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"adcraft/internal/layout"
	"adcraft/internal/meta"
)

// Session is the in-memory aggregate for one wizard run: brand,
// creative and campaign state plus the per-slot flight table. All
// mutation goes through Engine methods, which hold the session mutex.
type Session struct {
	ID string

	mu sync.Mutex

	Step  Step
	Brand BrandProfile

	NameSuggestions   []string
	PromptSuggestions []string

	Concepts          []AdConcept
	SelectedConceptID string
	CompositeVisual   string
	LogoPosition      *layout.Position

	Settings      CampaignSettings
	SettingsSaved bool

	Graph               GraphClient
	Portfolios          []meta.Portfolio
	SelectedPortfolioID string
	Assets              []meta.Asset
	Selected            SelectedAssets
	OAuthState          string

	CampaignID    string
	ReferenceCode string

	// epoch fences results across resets; flights fence within a slot.
	epoch   uint64
	flights map[Slot]*flight

	CreatedAt  time.Time
	LastActive time.Time
}

type flight struct {
	pending bool
	seq     uint64
}

// NewSession creates a fresh session at LANDING with default settings
// and its own graph client, so the bearer credential is scoped to this
// session and nothing else.
func NewSession(graph GraphClient) *Session {
	now := time.Now()
	return &Session{
		ID:         uuid.NewString(),
		Step:       StepLanding,
		Settings:   DefaultSettings(),
		Graph:      graph,
		flights:    make(map[Slot]*flight),
		CreatedAt:  now,
		LastActive: now,
	}
}

// ticket identifies one dispatched request for fenced application.
type ticket struct {
	slot  Slot
	epoch uint64
	seq   uint64
}

// beginFlight admits a request into a slot. Callers must hold s.mu.
func (s *Session) beginFlight(slot Slot) (ticket, error) {
	fl, ok := s.flights[slot]
	if !ok {
		fl = &flight{}
		s.flights[slot] = fl
	}
	if fl.pending {
		return ticket{}, ErrSlotBusy
	}
	fl.seq++
	fl.pending = true
	s.LastActive = time.Now()
	return ticket{slot: slot, epoch: s.epoch, seq: fl.seq}, nil
}

// settleFlight closes out a request and reports whether its result may
// be applied. A result from a previous epoch (session was reset) or a
// superseded sequence number is never applied. Callers must hold s.mu.
func (s *Session) settleFlight(tk ticket) bool {
	if tk.epoch != s.epoch {
		return false
	}
	fl, ok := s.flights[tk.slot]
	if !ok || fl.seq != tk.seq {
		return false
	}
	fl.pending = false
	s.LastActive = time.Now()
	return true
}

// reset discards all in-memory state and returns to LANDING. In-flight
// results from before the reset land in a dead epoch and are dropped.
// Callers must hold s.mu.
func (s *Session) reset() {
	s.epoch++
	s.Step = StepLanding
	s.Brand = BrandProfile{}
	s.NameSuggestions = nil
	s.PromptSuggestions = nil
	s.Concepts = nil
	s.SelectedConceptID = ""
	s.CompositeVisual = ""
	s.LogoPosition = nil
	s.Settings = DefaultSettings()
	s.SettingsSaved = false
	s.Portfolios = nil
	s.SelectedPortfolioID = ""
	s.Assets = nil
	s.Selected = SelectedAssets{}
	s.OAuthState = ""
	s.CampaignID = ""
	s.ReferenceCode = ""
	s.flights = make(map[Slot]*flight)
	s.Graph.ClearAccessToken()
	s.LastActive = time.Now()
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID                  string           `json:"id"`
	Step                Step             `json:"step"`
	Brand               BrandProfile     `json:"brand"`
	NameSuggestions     []string         `json:"nameSuggestions,omitempty"`
	PromptSuggestions   []string         `json:"promptSuggestions,omitempty"`
	Concepts            []AdConcept      `json:"concepts,omitempty"`
	SelectedConceptID   string           `json:"selectedConceptId,omitempty"`
	CompositeVisual     string           `json:"compositeVisual,omitempty"`
	LogoPosition        *layout.Position `json:"logoPosition,omitempty"`
	Settings            CampaignSettings `json:"settings"`
	TotalBudget         float64          `json:"totalBudget"`
	SettingsSaved       bool             `json:"settingsSaved"`
	MetaConnected       bool             `json:"metaConnected"`
	Portfolios          []meta.Portfolio `json:"portfolios,omitempty"`
	SelectedPortfolioID string           `json:"selectedPortfolioId,omitempty"`
	Assets              []meta.Asset     `json:"assets,omitempty"`
	SelectedAssets      SelectedAssets   `json:"selectedAssets"`
	CampaignID          string           `json:"campaignId,omitempty"`
	ReferenceCode       string           `json:"referenceCode,omitempty"`
}

// Snapshot renders the session for API responses.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:                  s.ID,
		Step:                s.Step,
		Brand:               s.Brand,
		NameSuggestions:     s.NameSuggestions,
		PromptSuggestions:   s.PromptSuggestions,
		Concepts:            s.Concepts,
		SelectedConceptID:   s.SelectedConceptID,
		CompositeVisual:     s.CompositeVisual,
		LogoPosition:        s.LogoPosition,
		Settings:            s.Settings,
		TotalBudget:         s.Settings.TotalBudget(),
		SettingsSaved:       s.SettingsSaved,
		MetaConnected:       s.Graph.AccessToken() != "",
		Portfolios:          s.Portfolios,
		SelectedPortfolioID: s.SelectedPortfolioID,
		Assets:              s.Assets,
		SelectedAssets:      s.Selected,
		CampaignID:          s.CampaignID,
		ReferenceCode:       s.ReferenceCode,
	}
}

// Touch refreshes the inactivity clock.
func (s *Session) Touch() {
	s.mu.Lock()
	s.LastActive = time.Now()
	s.mu.Unlock()
}

// IdleSince reports the last activity time for TTL sweeps.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastActive
}
