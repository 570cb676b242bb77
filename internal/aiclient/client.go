package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
)

// Client talks to the generation proxy. Every operation shares one
// endpoint and one request envelope: {"operation": <name>, ...fields}.
// The backing model is non-deterministic, so no call is idempotent and
// callers must not assume repeatability.
type Client struct {
	endpoint string
	httpc    *http.Client
}

// NewClient builds a proxy client for the given endpoint. The transport
// retries connection-level failures only; a non-2xx response is never
// retried, so an abandoned operation stays abandoned.
func NewClient(endpoint string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.Logger = nil
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return err != nil, nil
	}

	return &Client{
		endpoint: endpoint,
		httpc:    rc.StandardClient(),
	}
}

func (c *Client) post(ctx context.Context, operation string, fields map[string]any) ([]byte, error) {
	envelope := map[string]any{"operation": operation}
	for k, v := range fields {
		envelope[k] = v
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("%s encode: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrServer, operation, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, operation, raw)
	}

	return raw, nil
}

func classifyStatus(status int, operation string, raw []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s: http=%d body=%s", ErrUnauthorized, operation, status, truncate(raw))
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: http=%d", ErrRateLimited, operation, status)
	default:
		return fmt.Errorf("%w: %s: http=%d body=%s", ErrServer, operation, status, truncate(raw))
	}
}

func truncate(raw []byte) string {
	const max = 512
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}

// GenerateBusinessNames suggests brand names for a niche. A well-formed
// response with no names is a valid empty result, not an error.
func (c *Client) GenerateBusinessNames(ctx context.Context, niche string) ([]string, error) {
	raw, err := c.post(ctx, "generateBusinessNames", map[string]any{"niche": niche})
	if err != nil {
		return nil, err
	}

	var out struct {
		Names []string `json:"names"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}, nil
	}
	if out.Names == nil {
		return []string{}, nil
	}
	return out.Names, nil
}

// GenerateImagePrompts suggests imagery directions for a niche.
func (c *Client) GenerateImagePrompts(ctx context.Context, niche string) ([]string, error) {
	raw, err := c.post(ctx, "generateImagePrompts", map[string]any{"niche": niche})
	if err != nil {
		return nil, err
	}

	var out struct {
		Prompts []string `json:"prompts"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}, nil
	}
	if out.Prompts == nil {
		return []string{}, nil
	}
	return out.Prompts, nil
}

// GenerateLogo produces a logo descriptor for the brand. The full
// system carries an image-bearing result; the proxy contract guarantees
// a descriptor string at minimum.
func (c *Client) GenerateLogo(ctx context.Context, brandName, niche string) (string, error) {
	return c.describe(ctx, "generateLogo", map[string]any{
		"brandName": brandName,
		"niche":     niche,
	})
}

// GenerateProductImage produces a product-shot descriptor.
func (c *Client) GenerateProductImage(ctx context.Context, description, niche string) (string, error) {
	return c.describe(ctx, "generateProductImage", map[string]any{
		"brandName": description,
		"niche":     niche,
	})
}

func (c *Client) describe(ctx context.Context, operation string, fields map[string]any) (string, error) {
	raw, err := c.post(ctx, operation, fields)
	if err != nil {
		return "", err
	}

	var out struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", nil
	}
	return out.Description, nil
}

// GenerateAdConcepts returns candidate advertisements for the brand.
// The proxy aims for exactly three; the caller enforces batch shape.
func (c *Client) GenerateAdConcepts(ctx context.Context, brief BrandBrief) ([]Concept, error) {
	raw, err := c.post(ctx, "generateAdConcepts", map[string]any{"brandProfile": brief})
	if err != nil {
		return nil, err
	}

	var concepts []Concept
	if err := json.Unmarshal(raw, &concepts); err != nil {
		// Some envelopes wrap the array; tolerate that shape too.
		var wrapped struct {
			Concepts []Concept `json:"concepts"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return []Concept{}, nil
		}
		concepts = wrapped.Concepts
	}
	if concepts == nil {
		return []Concept{}, nil
	}
	return concepts, nil
}

// GenerateAdVisual requests the final composited creative. Unlike the
// list-bearing operations, an empty payload here is an error: there is
// no sensible empty form of a composite visual.
func (c *Client) GenerateAdVisual(ctx context.Context, req VisualRequest) (string, error) {
	raw, err := c.post(ctx, "generateAdVisual", map[string]any{
		"brandName":          req.BrandName,
		"logoDescription":    req.LogoDescription,
		"productDescription": req.ProductDescription,
		"adConcept":          req.AdConcept,
		"placementGuidance":  req.PlacementGuidance,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.Description == "" {
		return "", fmt.Errorf("%w: generateAdVisual", ErrEmptyArtifact)
	}
	return out.Description, nil
}

// GenerateTargetingSuggestions recommends audience settings for the
// given platform (defaults to Meta).
func (c *Client) GenerateTargetingSuggestions(ctx context.Context, brief BrandBrief, platform string) (TargetingSuggestion, error) {
	if platform == "" {
		platform = "Meta"
	}

	raw, err := c.post(ctx, "generateTargetingSuggestions", map[string]any{
		"brandProfile": brief,
		"platform":     platform,
	})
	if err != nil {
		return TargetingSuggestion{}, err
	}

	var out TargetingSuggestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return emptySuggestion(), nil
	}
	if out.Interests == nil {
		out.Interests = []string{}
	}
	if out.Behaviors == nil {
		out.Behaviors = []string{}
	}
	if out.Locations == nil {
		out.Locations = []string{}
	}
	if out.Platforms == nil {
		out.Platforms = []string{}
	}
	return out, nil
}

func emptySuggestion() TargetingSuggestion {
	return TargetingSuggestion{
		Interests: []string{},
		Behaviors: []string{},
		Locations: []string{},
		Platforms: []string{},
	}
}
