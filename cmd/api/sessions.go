package main

import (
	"net/http"

	"adcraft/internal/workflow"
)

type SessionTokenResponse struct {
	Token   string            `json:"token"`
	Session workflow.Snapshot `json:"session"`
}

// createSessionHandler godoc
//
//	@Summary		Create a session
//	@Description	Starts a fresh workflow session and returns a bearer token for it.
//	@Tags			sessions
//	@Produce		json
//	@Success		201	{object}	SessionTokenResponse
//	@Failure		500	{object}	error
//	@Router			/sessions [post]
func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := workflow.NewSession(app.newGraph())

	token, err := app.authenticator.GenerateSessionToken(sess.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.store.Sessions.Put(sess)
	app.logger.Infow("session created", "session", sess.ID)

	resp := SessionTokenResponse{Token: token, Session: sess.Snapshot()}
	if err := app.jsonResponse(w, http.StatusCreated, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getSessionHandler godoc
//
//	@Summary		Get session state
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/sessions [get]
func (app *application) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// resetSessionHandler godoc
//
//	@Summary		Reset a session
//	@Description	Drops all progress, disconnects Meta and returns to the landing step.
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	workflow.Snapshot
//	@Failure		401	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/sessions/reset [post]
func (app *application) resetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	brand := sess.Snapshot().Brand
	app.engine.Reset(sess)
	app.cleanupSessionAssets(brand)
	app.logger.Infow("session reset", "session", sess.ID)

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}
