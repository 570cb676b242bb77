package main

import (
	"net/http"

	"adcraft/internal/workflow"
)

// payloads use pointer fields so a missing key and an empty string
// stay distinguishable.
type UpdateBrandPayload struct {
	BusinessName   *string `json:"businessName" validate:"omitempty,max=120"`
	Niche          *string `json:"niche" validate:"omitempty,max=120"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	TargetAudience *string `json:"targetAudience" validate:"omitempty,max=500"`
}

// startBrandInputHandler godoc
//
//	@Summary		Begin brand input
//	@Description	Moves the session from the landing step into brand input.
//	@Tags			brand
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		400	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand/start [post]
func (app *application) startBrandInputHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if err := app.engine.StartBrandInput(sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// updateBrandHandler godoc
//
//	@Summary		Update brand profile
//	@Description	Applies a partial edit to the brand profile fields.
//	@Tags			brand
//	@Accept			json
//	@Produce		json
//	@Param			brand	body		UpdateBrandPayload	true	"Fields to update"
//	@Success		200		{object}	workflow.Snapshot
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand [post]
func (app *application) updateBrandHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateBrandPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := getSessionFromContext(r)
	app.engine.UpdateBrand(sess, workflow.BrandPatch{
		BusinessName:   payload.BusinessName,
		Niche:          payload.Niche,
		Description:    payload.Description,
		TargetAudience: payload.TargetAudience,
	})

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// suggestNamesHandler godoc
//
//	@Summary		Suggest business names
//	@Description	Asks the generation backend for name ideas based on the niche.
//	@Tags			brand
//	@Produce		json
//	@Success		200	{object}	map[string][]string
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error	"a suggestion request is already running"
//	@Security		ApiKeyAuth
//	@Router			/brand/names [post]
func (app *application) suggestNamesHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	names, err := app.engine.SuggestNames(r.Context(), sess)
	if err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string][]string{"names": names}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// suggestImagePromptsHandler godoc
//
//	@Summary		Suggest product image prompts
//	@Tags			brand
//	@Produce		json
//	@Success		200	{object}	map[string][]string
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand/image-prompts [post]
func (app *application) suggestImagePromptsHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	prompts, err := app.engine.SuggestImagePrompts(r.Context(), sess)
	if err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string][]string{"prompts": prompts}); err != nil {
		app.internalServerError(w, r, err)
	}
}

// generateLogoHandler godoc
//
//	@Summary		Generate a logo
//	@Description	Generates a logo image from the brand profile and stores it on the session.
//	@Tags			brand
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand/logo/generate [post]
func (app *application) generateLogoHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if _, err := app.engine.GenerateLogo(r.Context(), sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// generateProductImageHandler godoc
//
//	@Summary		Generate a product image
//	@Tags			brand
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/brand/product/generate [post]
func (app *application) generateProductImageHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if _, err := app.engine.GenerateProductImage(r.Context(), sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}
