package main

import (
	"net/http"

	"adcraft/internal/meta"
	"adcraft/internal/workflow"
)

type UpdateSettingsPayload struct {
	Objective    string  `json:"objective" validate:"required,oneof=AWARENESS TRAFFIC ENGAGEMENT LEADS SALES"`
	BudgetType   string  `json:"budgetType" validate:"required,oneof=DAILY LIFETIME"`
	BudgetAmount float64 `json:"budgetAmount" validate:"required,gt=0"`
	Duration     int     `json:"duration" validate:"required,min=1,max=365"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	StartDate    string  `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate      string  `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Locations    string  `json:"locations" validate:"omitempty,max=500"`
	AgeRange     string  `json:"ageRange" validate:"required,agerange"`
	Gender       string  `json:"gender" validate:"required,oneof=ALL MEN WOMEN"`
	Interests    string  `json:"interests" validate:"omitempty,max=500"`
}

// updateSettingsHandler godoc
//
//	@Summary		Update campaign settings
//	@Description	Replaces the campaign settings draft. Any prior save is invalidated until the user saves again.
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			settings	body		UpdateSettingsPayload	true	"Campaign settings"
//	@Success		200			{object}	workflow.Snapshot
//	@Failure		400			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/settings [post]
func (app *application) updateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateSettingsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := getSessionFromContext(r)
	app.engine.UpdateSettings(sess, workflow.CampaignSettings{
		Objective:    meta.Objective(payload.Objective),
		BudgetType:   payload.BudgetType,
		BudgetAmount: payload.BudgetAmount,
		Duration:     payload.Duration,
		Currency:     payload.Currency,
		StartDate:    payload.StartDate,
		EndDate:      payload.EndDate,
		Locations:    payload.Locations,
		AgeRange:     payload.AgeRange,
		Gender:       payload.Gender,
		Interests:    payload.Interests,
	})

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// saveSettingsHandler godoc
//
//	@Summary		Save campaign settings
//	@Description	Marks the current settings as saved, which is required before launch.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Security		ApiKeyAuth
//	@Router			/settings/save [post]
func (app *application) saveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	app.engine.SaveSettings(sess)

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// suggestTargetingHandler godoc
//
//	@Summary		Suggest audience targeting
//	@Description	Asks the generation backend for targeting and overwrites the audience fields of the settings draft.
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		409	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/targeting/suggest [post]
func (app *application) suggestTargetingHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if _, err := app.engine.SuggestTargeting(r.Context(), sess); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}
