package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"google.golang.org/genai"

	"adcraft/internal/aiclient"
)

const (
	defaultTextModel  = "gemini-2.5-flash"
	defaultImageModel = "gemini-2.5-flash-image-preview"
)

// ErrNoImage is returned when an image-bearing call yields no inline
// image data.
var ErrNoImage = errors.New("gemini: no image data in response")

// Engine is the generative backend behind the proxy endpoint. The rest
// of the system only ever reaches it through the operation envelope; it
// has no knowledge of workflow state.
type Engine struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewEngine builds a Gemini-backed engine.
func NewEngine(ctx context.Context, apiKey, textModel, imageModel string) (*Engine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if textModel == "" {
		textModel = defaultTextModel
	}
	if imageModel == "" {
		imageModel = defaultImageModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Engine{client: client, textModel: textModel, imageModel: imageModel}, nil
}

// IsRateLimited reports whether the upstream refused for quota reasons.
func IsRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 429
	}
	return false
}

// IsAuthFailure reports whether the upstream rejected the credential.
func IsAuthFailure(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == 401 || apiErr.Code == 403
	}
	return false
}

func (e *Engine) generateJSON(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	result, err := e.client.Models.GenerateContent(ctx, e.textModel, contents,
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return result.Text(), nil
}

// generateImage asks the image model for one composited or standalone
// image and returns it as a data URL.
func (e *Engine) generateImage(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}

	result, err := e.client.Models.GenerateContent(ctx, e.imageModel, contents,
		&genai.GenerateContentConfig{ResponseModalities: []string{"TEXT", "IMAGE"}})
	if err != nil {
		return "", fmt.Errorf("gemini image generate: %w", err)
	}

	for _, cand := range result.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				mime := part.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				return "data:" + mime + ";base64," +
					base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
			}
		}
	}
	return "", ErrNoImage
}

// BusinessNames suggests brand names for a niche.
func (e *Engine) BusinessNames(ctx context.Context, niche string) ([]string, error) {
	prompt := fmt.Sprintf(
		`Suggest 5 short, memorable business names for a company in the "%s" niche. `+
			`Respond with JSON: {"names": ["...", ...]}`, niche)

	raw, err := e.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return stringList(raw, "names"), nil
}

// ImagePrompts suggests imagery directions for a niche.
func (e *Engine) ImagePrompts(ctx context.Context, niche string) ([]string, error) {
	prompt := fmt.Sprintf(
		`Suggest 4 distinct photography or illustration directions for advertising a "%s" business. `+
			`One sentence each. Respond with JSON: {"prompts": ["...", ...]}`, niche)

	raw, err := e.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return stringList(raw, "prompts"), nil
}

// Logo generates a brand logo image.
func (e *Engine) Logo(ctx context.Context, brandName, niche string) (string, error) {
	prompt := fmt.Sprintf(
		"Design a clean, modern logo for %q, a %s business. "+
			"Flat vector style, plain background, no extra text beyond the brand name.",
		brandName, niche)
	return e.generateImage(ctx, prompt)
}

// ProductImage generates a product shot.
func (e *Engine) ProductImage(ctx context.Context, description, niche string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a professional product photograph for a %s business: %s. "+
			"Studio lighting, advertising quality, no text overlay.",
		niche, description)
	return e.generateImage(ctx, prompt)
}

// AdConcepts produces candidate advertisements for a brand.
func (e *Engine) AdConcepts(ctx context.Context, brief aiclient.BrandBrief) ([]aiclient.Concept, error) {
	prompt := fmt.Sprintf(
		`Create exactly 3 distinct ad concepts for this brand:
Name: %s
Niche: %s
Description: %s
Target audience: %s

Respond with a JSON array of exactly 3 objects, each with keys:
headline, primaryText, cta, visualDescription, designVibe, colorHex (6 hex digits, no #).`,
		brief.Name, brief.Niche, brief.Description, brief.TargetAudience)

	raw, err := e.generateJSON(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var concepts []aiclient.Concept
	if err := json.Unmarshal([]byte(raw), &concepts); err != nil {
		// Tolerate a wrapped array.
		wrapped := gjson.Get(raw, "concepts")
		if wrapped.IsArray() {
			_ = json.Unmarshal([]byte(wrapped.Raw), &concepts)
		}
	}
	if concepts == nil {
		concepts = []aiclient.Concept{}
	}
	return concepts, nil
}

// AdVisual composes the final advertising creative: product imagery,
// logo and copy guidance merged into one image.
func (e *Engine) AdVisual(ctx context.Context, req aiclient.VisualRequest) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Compose a single polished advertising image for %q.\n", req.BrandName)
	fmt.Fprintf(&b, "Concept: %s. %s\n", req.AdConcept.Headline, req.AdConcept.VisualDescription)
	fmt.Fprintf(&b, "Design vibe: %s. Dominant color: #%s.\n", req.AdConcept.DesignVibe, req.AdConcept.ColorHex)
	if req.ProductDescription != "" {
		fmt.Fprintf(&b, "Feature the product: %s\n", req.ProductDescription)
	}
	if req.LogoDescription != "" {
		fmt.Fprintf(&b, "Include the brand logo: %s\n", req.LogoDescription)
	}
	if req.PlacementGuidance != "" {
		fmt.Fprintf(&b, "%s\n", req.PlacementGuidance)
	}
	fmt.Fprintf(&b, "Leave room for the headline text %q.", req.AdConcept.Headline)

	return e.generateImage(ctx, b.String())
}

// Targeting recommends audience settings for the given platform.
func (e *Engine) Targeting(ctx context.Context, brief aiclient.BrandBrief, platform string) (aiclient.TargetingSuggestion, error) {
	prompt := fmt.Sprintf(
		`Suggest %s advertising targeting for this brand:
Name: %s
Niche: %s
Description: %s
Audience: %s

Respond with JSON: {"ageRange":[min,max],"interests":[...],"behaviors":[...],
"locations":[...],"platforms":[...],"budgetSuggestion":<daily USD number>}`,
		platform, brief.Name, brief.Niche, brief.Description, brief.TargetAudience)

	raw, err := e.generateJSON(ctx, prompt)
	if err != nil {
		return aiclient.TargetingSuggestion{}, err
	}

	out := aiclient.TargetingSuggestion{
		Interests: stringList(raw, "interests"),
		Behaviors: stringList(raw, "behaviors"),
		Locations: stringList(raw, "locations"),
		Platforms: stringList(raw, "platforms"),
	}
	ages := gjson.Get(raw, "ageRange").Array()
	if len(ages) == 2 {
		out.AgeRange = [2]int{int(ages[0].Int()), int(ages[1].Int())}
	}
	out.BudgetSuggestion = gjson.Get(raw, "budgetSuggestion").Float()
	return out, nil
}

func stringList(raw, key string) []string {
	out := []string{}
	for _, v := range gjson.Get(raw, key).Array() {
		if s := strings.TrimSpace(v.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
