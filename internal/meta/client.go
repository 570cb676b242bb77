package meta

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const DefaultGraphURL = "https://graph.facebook.com/v19.0"

var ErrNotAuthenticated = errors.New("meta: not authenticated")

// Client is the Ads Graph adapter. The bearer credential lives on the
// client instance with explicit set/get/clear operations and is scoped
// to one workflow session. There is no token refresh: expiry shows up
// as ordinary request failures. The client never retries; retry policy,
// if any, belongs to the caller.
type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *zap.SugaredLogger

	mu          sync.RWMutex
	accessToken string
}

func NewClient(baseURL string, logger *zap.SugaredLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.accessToken = token
	c.mu.Unlock()
}

func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *Client) ClearAccessToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (string, error) {
	token := c.AccessToken()
	if token == "" {
		return "", ErrNotAuthenticated
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("meta graph request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", graphError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (string, error) {
	token := c.AccessToken()
	if token == "" {
		return "", ErrNotAuthenticated
	}
	form.Set("access_token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("meta graph request: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", graphError(resp.StatusCode, body)
	}
	return body, nil
}

// graphError surfaces the graph's own message when one is present.
func graphError(status int, body string) error {
	if msg := gjson.Get(body, "error.message").Str; msg != "" {
		return fmt.Errorf("meta graph: %s", msg)
	}
	return fmt.Errorf("meta graph: http=%d body=%s", status, body)
}

// GetPortfolios fetches business-manager portfolios. A failure or an
// empty account yields an empty list, never an error: the caller treats
// that as "proceed with the personal context".
func (c *Client) GetPortfolios(ctx context.Context) []Portfolio {
	body, err := c.get(ctx, "/me/businesses", url.Values{"fields": {"id,name"}})
	if err != nil {
		if c.logger != nil {
			c.logger.Warnw("portfolio fetch failed, continuing with personal context", "error", err)
		}
		return []Portfolio{}
	}

	portfolios := []Portfolio{}
	for _, item := range gjson.Get(body, "data").Array() {
		portfolios = append(portfolios, Portfolio{
			ID:   gjson.Get(item.Raw, "id").Str,
			Name: gjson.Get(item.Raw, "name").Str,
		})
	}
	return portfolios
}

// GetAssets fetches pages (with page-scoped tokens and any linked
// Instagram business account) plus ad accounts, flattened into one
// heterogeneous list. The synthetic personal portfolio reads from the
// authenticated identity directly.
func (c *Client) GetAssets(ctx context.Context, portfolioID string) ([]Asset, error) {
	pagesPath, accountsPath := "/me/accounts", "/me/adaccounts"
	if portfolioID != "" && portfolioID != PersonalPortfolioID {
		pagesPath = "/" + portfolioID + "/owned_pages"
		accountsPath = "/" + portfolioID + "/owned_ad_accounts"
	}

	assets := []Asset{}

	pages, err := c.get(ctx, pagesPath, url.Values{
		"fields": {"id,name,access_token,instagram_business_account{id,username}"},
	})
	if err != nil {
		return nil, err
	}
	for _, page := range gjson.Get(pages, "data").Array() {
		pageID := gjson.Get(page.Raw, "id").Str
		assets = append(assets, Asset{
			Type:            AssetTypePage,
			ID:              pageID,
			Name:            gjson.Get(page.Raw, "name").Str,
			PageAccessToken: gjson.Get(page.Raw, "access_token").Str,
		})

		if ig := gjson.Get(page.Raw, "instagram_business_account"); ig.Exists() {
			name := gjson.Get(ig.Raw, "username").Str
			if name == "" {
				name = "Instagram Business Account"
			}
			assets = append(assets, Asset{
				Type:         AssetTypeInstagram,
				ID:           gjson.Get(ig.Raw, "id").Str,
				Name:         name,
				ParentPageID: pageID,
			})
		}
	}

	accounts, err := c.get(ctx, accountsPath, url.Values{"fields": {"id,name,account_status"}})
	if err != nil {
		return nil, err
	}
	for _, acct := range gjson.Get(accounts, "data").Array() {
		name := gjson.Get(acct.Raw, "name").Str
		if name == "" {
			name = gjson.Get(acct.Raw, "id").Str
		}
		assets = append(assets, Asset{
			Type: AssetTypeAdAccount,
			ID:   gjson.Get(acct.Raw, "id").Str,
			Name: name,
		})
	}

	return assets, nil
}

// LaunchCampaign creates the campaign container on the ad account. The
// campaign is always created PAUSED and never auto-activates; going
// live is an explicit action the user takes on the ads platform itself.
// Ad-set and ad creation are out of scope, the call succeeds once the
// container exists.
func (c *Client) LaunchCampaign(ctx context.Context, adAccountID string, in CampaignInput) (string, error) {
	if adAccountID == "" {
		return "", errors.New("meta: ad account id is required")
	}

	form := url.Values{
		"name":                  {in.Name},
		"objective":             {graphObjective(in.Objective)},
		"status":                {"PAUSED"},
		"special_ad_categories": {"[]"},
	}

	// Graph budgets are minor units of the account currency. Rounded,
	// not truncated: 19.99 has no exact float form and must stay 1999.
	budget := strconv.FormatInt(int64(math.Round(in.BudgetAmount*100)), 10)
	if strings.EqualFold(in.BudgetType, "LIFETIME") {
		form.Set("lifetime_budget", budget)
	} else {
		form.Set("daily_budget", budget)
	}

	acct := adAccountID
	if !strings.HasPrefix(acct, "act_") {
		acct = "act_" + acct
	}

	body, err := c.postForm(ctx, "/"+acct+"/campaigns", form)
	if err != nil {
		return "", err
	}

	campaignID := gjson.Get(body, "id").Str
	if campaignID == "" {
		return "", fmt.Errorf("meta graph: campaign created without id, body=%s", body)
	}
	return campaignID, nil
}
