package main

import (
	"net/http"
)

type SelectConceptPayload struct {
	ConceptID string `json:"conceptId" validate:"required"`
}

type LogoPositionPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// generateConceptsHandler godoc
//
//	@Summary		Generate ad concepts
//	@Description	Produces a fresh batch of three concepts; any previous selection and composite are dropped.
//	@Tags			concepts
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error	"a concept batch is already being generated"
//	@Security		ApiKeyAuth
//	@Router			/concepts/generate [post]
func (app *application) generateConceptsHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if _, err := app.engine.GenerateConcepts(r.Context(), sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// selectConceptHandler godoc
//
//	@Summary		Select a concept
//	@Tags			concepts
//	@Accept			json
//	@Produce		json
//	@Param			selection	body		SelectConceptPayload	true	"Concept to select"
//	@Success		200			{object}	workflow.Snapshot
//	@Failure		400			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/concepts/select [post]
func (app *application) selectConceptHandler(w http.ResponseWriter, r *http.Request) {
	var payload SelectConceptPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := getSessionFromContext(r)
	if err := app.engine.SelectConcept(sess, payload.ConceptID); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// composeVisualHandler godoc
//
//	@Summary		Compose the ad visual
//	@Description	Renders the selected concept with brand imagery into one composite creative.
//	@Tags			concepts
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/concepts/visual [post]
func (app *application) composeVisualHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if _, err := app.engine.ComposeVisual(r.Context(), sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// setLogoPositionHandler godoc
//
//	@Summary		Set logo placement
//	@Description	Records where the logo sits on the creative. Coordinates are percentages from the top-left corner and are clamped to the draggable area.
//	@Tags			concepts
//	@Accept			json
//	@Produce		json
//	@Param			position	body		LogoPositionPayload	true	"Placement in percent"
//	@Success		200			{object}	layout.Position
//	@Failure		400			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/logo-position [post]
func (app *application) setLogoPositionHandler(w http.ResponseWriter, r *http.Request) {
	var payload LogoPositionPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := getSessionFromContext(r)
	pos := app.engine.SetLogoPosition(sess, payload.X, payload.Y)

	if err := app.jsonResponse(w, http.StatusOK, pos); err != nil {
		app.internalServerError(w, r, err)
	}
}

// enterReviewHandler godoc
//
//	@Summary		Enter final review
//	@Description	Moves to the review step once a composite visual exists.
//	@Tags			concepts
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		400	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/review [post]
func (app *application) enterReviewHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if err := app.engine.EnterReview(sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}
