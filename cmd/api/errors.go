package main

import (
	"errors"
	"net/http"

	"adcraft/internal/aiclient"
	"adcraft/internal/workflow"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "resource not found")
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "path", r.URL.Path, "retryAfter", retryAfter)

	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// workflowErrorResponse maps engine and client errors onto the API
// surface. Every failure is scoped to the single operation that caused
// it; the session stays where it is.
func (app *application) workflowErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workflow.ErrSlotBusy):
		app.conflictResponse(w, r, err)
	case errors.Is(err, workflow.ErrStaleResult):
		app.conflictResponse(w, r, err)
	case errors.Is(err, workflow.ErrUnknownConcept):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, workflow.ErrNicheRequired),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrNoConceptSelected),
		errors.Is(err, workflow.ErrSettingsNotSaved),
		errors.Is(err, workflow.ErrAssetsIncomplete),
		errors.Is(err, workflow.ErrNotConnected):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, aiclient.ErrRateLimited):
		app.rateLimitExceededResponse(w, r, "60")
	case errors.Is(err, aiclient.ErrUnauthorized),
		errors.Is(err, aiclient.ErrServer),
		errors.Is(err, aiclient.ErrEmptyArtifact),
		errors.Is(err, workflow.ErrIncompleteBatch):
		app.logger.Warnw("generation failed", "path", r.URL.Path, "error", err.Error())
		writeJSONError(w, http.StatusBadGateway, userMessage(err))
	default:
		writeJSONError(w, http.StatusBadGateway, userMessage(err))
	}
}

// userMessage strips the wrapped transport detail, keeping the stable
// presentable text from the sentinel.
func userMessage(err error) string {
	for _, sentinel := range []error{
		aiclient.ErrUnauthorized,
		aiclient.ErrRateLimited,
		aiclient.ErrServer,
		aiclient.ErrEmptyArtifact,
		workflow.ErrIncompleteBatch,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
