package main

import (
	"context"
	"fmt"
	"net/http"

	"adcraft/internal/aiclient"
	"adcraft/internal/gemini"
)

// generationBackend is the model surface behind the proxy endpoint,
// one method per envelope operation.
type generationBackend interface {
	BusinessNames(ctx context.Context, niche string) ([]string, error)
	ImagePrompts(ctx context.Context, niche string) ([]string, error)
	Logo(ctx context.Context, brandName, niche string) (string, error)
	ProductImage(ctx context.Context, description, niche string) (string, error)
	AdConcepts(ctx context.Context, brief aiclient.BrandBrief) ([]aiclient.Concept, error)
	AdVisual(ctx context.Context, req aiclient.VisualRequest) (string, error)
	Targeting(ctx context.Context, brief aiclient.BrandBrief, platform string) (aiclient.TargetingSuggestion, error)
}

// GeneratePayload is the operation-tagged envelope of the generation
// proxy. Fields beyond the tag are interpreted per operation.
type GeneratePayload struct {
	Operation string `json:"operation" validate:"required"`

	Niche     string `json:"niche"`
	BrandName string `json:"brandName"`

	BrandProfile *aiclient.BrandBrief `json:"brandProfile"`
	Platform     string               `json:"platform"`

	LogoDescription    string            `json:"logoDescription"`
	ProductDescription string            `json:"productDescription"`
	AdConcept          *aiclient.Concept `json:"adConcept"`
	PlacementGuidance  string            `json:"placementGuidance"`
}

// generateHandler godoc
//
//	@Summary		Generation proxy
//	@Description	Single endpoint for all generation operations. The request is an envelope with an "operation" tag; the response shape depends on the operation.
//	@Tags			generate
//	@Accept			json
//	@Produce		json
//	@Param			request	body		GeneratePayload	true	"Operation envelope"
//	@Success		200		{object}	map[string]any
//	@Failure		400		{object}	error	"unknown operation or missing fields"
//	@Failure		403		{object}	error	"generation backend is not configured or rejected the key"
//	@Failure		429		{object}	error	"generation backend rate limit"
//	@Router			/generate [post]
func (app *application) generateHandler(w http.ResponseWriter, r *http.Request) {
	var payload GeneratePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if payload.Operation == "" {
		app.badRequestResponse(w, r, fmt.Errorf("operation is required"))
		return
	}

	if app.gemini == nil {
		writeJSONError(w, http.StatusForbidden, "generation backend is not configured")
		return
	}

	ctx := r.Context()

	switch payload.Operation {
	case "generateBusinessNames":
		if payload.Niche == "" {
			app.badRequestResponse(w, r, fmt.Errorf("niche is required"))
			return
		}
		names, err := app.gemini.BusinessNames(ctx, payload.Niche)
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"names": names})

	case "generateImagePrompts":
		if payload.Niche == "" {
			app.badRequestResponse(w, r, fmt.Errorf("niche is required"))
			return
		}
		prompts, err := app.gemini.ImagePrompts(ctx, payload.Niche)
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"prompts": prompts})

	case "generateLogo":
		if payload.Niche == "" {
			app.badRequestResponse(w, r, fmt.Errorf("niche is required"))
			return
		}
		description, err := app.gemini.Logo(ctx, payload.BrandName, payload.Niche)
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"description": description})

	case "generateProductImage":
		if payload.Niche == "" {
			app.badRequestResponse(w, r, fmt.Errorf("niche is required"))
			return
		}
		description, err := app.gemini.ProductImage(ctx, payload.BrandName, payload.Niche)
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"description": description})

	case "generateAdConcepts":
		if payload.BrandProfile == nil || payload.BrandProfile.Niche == "" {
			app.badRequestResponse(w, r, fmt.Errorf("brandProfile with a niche is required"))
			return
		}
		concepts, err := app.gemini.AdConcepts(ctx, *payload.BrandProfile)
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, concepts)

	case "generateAdVisual":
		if payload.AdConcept == nil {
			app.badRequestResponse(w, r, fmt.Errorf("adConcept is required"))
			return
		}
		description, err := app.gemini.AdVisual(ctx, aiclient.VisualRequest{
			BrandName:          payload.BrandName,
			LogoDescription:    payload.LogoDescription,
			ProductDescription: payload.ProductDescription,
			AdConcept:          *payload.AdConcept,
			PlacementGuidance:  payload.PlacementGuidance,
		})
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"description": description})

	case "generateTargetingSuggestions":
		if payload.BrandProfile == nil || payload.BrandProfile.Niche == "" {
			app.badRequestResponse(w, r, fmt.Errorf("brandProfile with a niche is required"))
			return
		}
		// Direct callers may omit the platform; Meta is the default
		// at this boundary.
		platform := payload.Platform
		if platform == "" {
			platform = "Meta"
		}
		suggestion, err := app.gemini.Targeting(ctx, *payload.BrandProfile, platform)
		if err != nil {
			app.generationErrorResponse(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestion)

	default:
		app.badRequestResponse(w, r, fmt.Errorf("unknown operation %q", payload.Operation))
	}
}

// generationErrorResponse maps backend failures onto the proxy status
// contract: auth problems come back 403, quota problems 429, anything
// else 500.
func (app *application) generationErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case gemini.IsAuthFailure(err):
		app.logger.Warnw("generation auth failure", "error", err.Error())
		writeJSONError(w, http.StatusForbidden, "generation backend rejected the credentials")
	case gemini.IsRateLimited(err):
		app.logger.Warnw("generation rate limited", "error", err.Error())
		writeJSONError(w, http.StatusTooManyRequests, "generation backend rate limit reached")
	default:
		app.internalServerError(w, r, err)
	}
}
