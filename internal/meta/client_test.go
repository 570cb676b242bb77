package meta

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraphStub(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, nil)
	c.SetAccessToken("test-token")
	return c
}

func TestAccessTokenLifecycle(t *testing.T) {
	c := NewClient("", nil)
	assert.Empty(t, c.AccessToken())

	c.SetAccessToken("tok")
	assert.Equal(t, "tok", c.AccessToken())

	c.ClearAccessToken()
	assert.Empty(t, c.AccessToken())
}

func TestRequestsRequireToken(t *testing.T) {
	c := NewClient("http://graph.invalid", nil)

	_, err := c.GetAssets(context.Background(), PersonalPortfolioID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = c.LaunchCampaign(context.Background(), "123", CampaignInput{Name: "x"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestGetPortfoliosEmptyOnFailure(t *testing.T) {
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom"}}`))
	})

	got := c.GetPortfolios(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetPortfolios(t *testing.T) {
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/businesses", r.URL.Path)
		assert.Equal(t, "test-token", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"data":[{"id":"bm_1","name":"Acme Holdings"}]}`))
	})

	got := c.GetPortfolios(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, Portfolio{ID: "bm_1", Name: "Acme Holdings"}, got[0])
}

func TestGetAssetsFlattensPagesInstagramAndAdAccounts(t *testing.T) {
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/me/accounts":
			w.Write([]byte(`{"data":[{"id":"pg_1","name":"Brew Theory","access_token":"page-tok",
				"instagram_business_account":{"id":"ig_1","username":"brewtheory"}}]}`))
		case "/me/adaccounts":
			w.Write([]byte(`{"data":[{"id":"act_99","name":"Main Account"}]}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	assets, err := c.GetAssets(context.Background(), PersonalPortfolioID)
	require.NoError(t, err)
	require.Len(t, assets, 3)

	assert.Equal(t, AssetTypePage, assets[0].Type)
	assert.Equal(t, "page-tok", assets[0].PageAccessToken)

	assert.Equal(t, AssetTypeInstagram, assets[1].Type)
	assert.Equal(t, "pg_1", assets[1].ParentPageID)
	assert.Equal(t, "brewtheory", assets[1].Name)

	assert.Equal(t, AssetTypeAdAccount, assets[2].Type)
	assert.Equal(t, "act_99", assets[2].ID)
}

func TestGetAssetsUsesPortfolioEdges(t *testing.T) {
	var paths []string
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{"data":[]}`))
	})

	_, err := c.GetAssets(context.Background(), "bm_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"/bm_1/owned_pages", "/bm_1/owned_ad_accounts"}, paths)
}

func TestLaunchCampaignAlwaysPaused(t *testing.T) {
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/act_99/campaigns", r.URL.Path)
		assert.Equal(t, "PAUSED", r.PostForm.Get("status"))
		assert.Equal(t, "OUTCOME_SALES", r.PostForm.Get("objective"))
		assert.Equal(t, "5000", r.PostForm.Get("daily_budget"))
		assert.Equal(t, "[]", r.PostForm.Get("special_ad_categories"))
		w.Write([]byte(`{"id":"camp_123"}`))
	})

	id, err := c.LaunchCampaign(context.Background(), "99", CampaignInput{
		Name:         "Brew Theory Launch",
		Objective:    ObjectiveSales,
		BudgetType:   "DAILY",
		BudgetAmount: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, "camp_123", id)
}

func TestLaunchCampaignLifetimeBudget(t *testing.T) {
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "12000", r.PostForm.Get("lifetime_budget"))
		assert.Empty(t, r.PostForm.Get("daily_budget"))
		w.Write([]byte(`{"id":"camp_456"}`))
	})

	_, err := c.LaunchCampaign(context.Background(), "act_7", CampaignInput{
		Name:         "x",
		Objective:    ObjectiveAwareness,
		BudgetType:   "LIFETIME",
		BudgetAmount: 120,
	})
	require.NoError(t, err)
}

func TestLaunchCampaignRoundsBudgetToMinorUnits(t *testing.T) {
	// 19.99 has no exact binary form; 19.99*100 sits just under 1999
	// and must round up, not truncate.
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1999", r.PostForm.Get("daily_budget"))
		w.Write([]byte(`{"id":"camp_789"}`))
	})

	_, err := c.LaunchCampaign(context.Background(), "99", CampaignInput{
		Name:         "x",
		Objective:    ObjectiveTraffic,
		BudgetType:   "DAILY",
		BudgetAmount: 19.99,
	})
	require.NoError(t, err)

	c = newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "10001", r.PostForm.Get("lifetime_budget"))
		w.Write([]byte(`{"id":"camp_790"}`))
	})

	_, err = c.LaunchCampaign(context.Background(), "99", CampaignInput{
		Name:         "x",
		Objective:    ObjectiveTraffic,
		BudgetType:   "LIFETIME",
		BudgetAmount: 100.01,
	})
	require.NoError(t, err)
}

func TestLaunchCampaignSurfacesGraphMessage(t *testing.T) {
	c := newGraphStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid parameter"}}`))
	})

	_, err := c.LaunchCampaign(context.Background(), "99", CampaignInput{Name: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid parameter")
}

func TestObjectiveMapping(t *testing.T) {
	assert.Equal(t, "OUTCOME_AWARENESS", graphObjective(ObjectiveAwareness))
	assert.Equal(t, "OUTCOME_TRAFFIC", graphObjective(ObjectiveTraffic))
	assert.Equal(t, "OUTCOME_ENGAGEMENT", graphObjective(ObjectiveEngagement))
	assert.Equal(t, "OUTCOME_LEADS", graphObjective(ObjectiveLeads))
	assert.Equal(t, "OUTCOME_SALES", graphObjective(ObjectiveSales))
	assert.Equal(t, "OUTCOME_TRAFFIC", graphObjective(Objective("bogus")))
}

func TestLoginBroker(t *testing.T) {
	b := NewLoginBroker()
	b.Begin("state-1")

	go func() {
		time.Sleep(10 * time.Millisecond)
		assert.NoError(t, b.Complete("state-1", "tok-42"))
	}()

	token, err := b.Await(context.Background(), "state-1", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "tok-42", token)

	// Consumed: a second completion for the same state is rejected.
	assert.ErrorIs(t, b.Complete("state-1", "tok-43"), ErrUnknownLogin)
}

func TestLoginBrokerTimeout(t *testing.T) {
	b := NewLoginBroker()
	b.Begin("state-2")

	_, err := b.Await(context.Background(), "state-2", 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLoginTimeout)

	// The timed-out state is gone; a late token has nowhere to land.
	assert.ErrorIs(t, b.Complete("state-2", "late"), ErrUnknownLogin)
}

func TestLoginBrokerCancel(t *testing.T) {
	b := NewLoginBroker()
	b.Begin("state-3")

	done := make(chan error, 1)
	go func() {
		_, err := b.Await(context.Background(), "state-3", time.Second)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Cancel("state-3")
	assert.ErrorIs(t, <-done, ErrLoginCanceled)
}

func TestAuthorizationURL(t *testing.T) {
	cfg := OAuthConfig{AppID: "app-1", RedirectURI: "https://ads.example.com/v1/meta/oauth/callback"}
	u := cfg.AuthorizationURL("signed-state")

	assert.Contains(t, u, "client_id=app-1")
	assert.Contains(t, u, "response_type=token")
	assert.Contains(t, u, "state=signed-state")
	assert.Contains(t, u, "ads_management")
}
