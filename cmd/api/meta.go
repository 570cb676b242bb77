package main

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"adcraft/internal/mailer"
	"adcraft/internal/meta"
	"adcraft/internal/workflow"

	"github.com/golang-jwt/jwt/v5"
)

// loginWaitTimeout bounds how long the wait endpoint holds the request
// open for the popup to finish. It must stay under the router timeout.
const loginWaitTimeout = 90 * time.Second

type MetaConnectResponse struct {
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

type OAuthCompletePayload struct {
	State       string `json:"state" validate:"required"`
	AccessToken string `json:"accessToken" validate:"required"`
}

type SelectPortfolioPayload struct {
	PortfolioID string `json:"portfolioId" validate:"required"`
}

type SelectAssetsPayload struct {
	PageID      string `json:"pageId" validate:"required"`
	InstagramID string `json:"instagramId" validate:"required"`
	AdAccountID string `json:"adAccountId" validate:"required"`
}

// metaConnectHandler godoc
//
//	@Summary		Start Meta login
//	@Description	Opens a login attempt and returns the authorization URL for the popup, tagged with a signed state token.
//	@Tags			meta
//	@Produce		json
//	@Success		200	{object}	MetaConnectResponse
//	@Failure		400	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/meta/connect [post]
func (app *application) metaConnectHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	state, err := app.authenticator.GenerateStateToken(sess.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.engine.ConnectMeta(sess, state); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}
	app.loginBroker.Begin(state)

	resp := MetaConnectResponse{
		AuthURL: app.oauth.AuthorizationURL(state),
		State:   state,
	}
	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// metaOAuthWaitHandler godoc
//
//	@Summary		Wait for Meta login
//	@Description	Long-polls until the popup delivers the access token, then fetches portfolios and advances to asset selection.
//	@Tags			meta
//	@Produce		json
//	@Param			state	query		string	true	"State token from /meta/connect"
//	@Success		200		{object}	workflow.Snapshot
//	@Failure		400		{object}	error
//	@Failure		408		{object}	error	"login was not completed in time"
//	@Security		ApiKeyAuth
//	@Router			/meta/oauth/wait [get]
func (app *application) metaOAuthWaitHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	state := r.URL.Query().Get("state")
	if state == "" {
		app.badRequestResponse(w, r, fmt.Errorf("state is required"))
		return
	}
	if err := app.validateStateForSession(state, sess.ID); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	token, err := app.loginBroker.Await(r.Context(), state, loginWaitTimeout)
	if err != nil {
		switch {
		case errors.Is(err, meta.ErrLoginTimeout):
			writeJSONError(w, http.StatusRequestTimeout, err.Error())
		case errors.Is(err, meta.ErrUnknownLogin), errors.Is(err, meta.ErrLoginCanceled):
			app.badRequestResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.engine.CompleteLogin(r.Context(), sess, token); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}
	app.logger.Infow("meta login completed", "session", sess.ID)

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// oauthRelayPage runs inside the OAuth popup. Facebook returns the
// token in the URL fragment, which never reaches this server; the page
// lifts it out, hands it to the complete endpoint and notifies its
// opener.
var oauthRelayPage = template.Must(template.New("relay").Parse(`<!DOCTYPE html>
<html>
<head><title>Connecting…</title></head>
<body>
<p>Finishing login…</p>
<script>
(function () {
	var params = new URLSearchParams(window.location.hash.replace(/^#/, ""));
	var token = params.get("access_token");
	var state = params.get("state") || new URLSearchParams(window.location.search).get("state");
	if (!token || !state) {
		document.body.textContent = "Login failed: no access token returned.";
		return;
	}
	fetch("{{.CompleteURL}}", {
		method: "POST",
		headers: { "Content-Type": "application/json" },
		body: JSON.stringify({ state: state, accessToken: token })
	}).then(function () {
		if (window.opener) {
			window.opener.postMessage({ type: {{.SuccessMessage}} }, "*");
		}
		window.close();
	}).catch(function () {
		document.body.textContent = "Login failed: could not reach the server.";
	});
})();
</script>
</body>
</html>
`))

// metaOAuthCallbackHandler godoc
//
//	@Summary		OAuth popup relay
//	@Description	Serves the page the OAuth redirect lands on. It extracts the token fragment client-side and posts it back.
//	@Tags			meta
//	@Produce		html
//	@Success		200	{string}	string
//	@Router			/meta/oauth/callback [get]
func (app *application) metaOAuthCallbackHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := oauthRelayPage.Execute(w, map[string]string{
		"CompleteURL":    "/v1/meta/oauth/complete",
		"SuccessMessage": meta.AuthSuccessMessage,
	})
	if err != nil {
		app.logger.Errorw("oauth relay render failed", "error", err.Error())
	}
}

// metaOAuthCompleteHandler godoc
//
//	@Summary		Deliver the OAuth token
//	@Description	Called by the popup relay. Verifies the signed state and hands the token to the waiting session.
//	@Tags			meta
//	@Accept			json
//	@Success		204
//	@Failure		400	{object}	error
//	@Failure		401	{object}	error
//	@Router			/meta/oauth/complete [post]
func (app *application) metaOAuthCompleteHandler(w http.ResponseWriter, r *http.Request) {
	var payload OAuthCompletePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.authenticator.ValidateStateToken(payload.State); err != nil {
		app.unauthorizedErrorResponse(w, r, err)
		return
	}

	if err := app.loginBroker.Complete(payload.State, payload.AccessToken); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateStateForSession checks both the signature and that the state
// was minted for this session.
func (app *application) validateStateForSession(state, sessionID string) error {
	jwtToken, err := app.authenticator.ValidateStateToken(state)
	if err != nil {
		return err
	}
	claims, _ := jwtToken.Claims.(jwt.MapClaims)
	if sub, _ := claims["sub"].(string); sub != sessionID {
		return fmt.Errorf("state token belongs to another session")
	}
	return nil
}

// selectPortfolioHandler godoc
//
//	@Summary		Select a business portfolio
//	@Description	Picks a portfolio and loads its pages, Instagram accounts and ad accounts.
//	@Tags			meta
//	@Accept			json
//	@Produce		json
//	@Param			selection	body		SelectPortfolioPayload	true	"Portfolio to open"
//	@Success		200			{object}	workflow.Snapshot
//	@Failure		400			{object}	error
//	@Failure		409			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/meta/portfolio [post]
func (app *application) selectPortfolioHandler(w http.ResponseWriter, r *http.Request) {
	var payload SelectPortfolioPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := getSessionFromContext(r)
	if _, err := app.engine.SelectPortfolio(r.Context(), sess, payload.PortfolioID); err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// selectAssetsHandler godoc
//
//	@Summary		Select launch assets
//	@Description	Records the page, Instagram account and ad account the campaign will launch with.
//	@Tags			meta
//	@Accept			json
//	@Produce		json
//	@Param			selection	body		SelectAssetsPayload	true	"Assets to launch with"
//	@Success		200			{object}	workflow.Snapshot
//	@Failure		400			{object}	error
//	@Security		ApiKeyAuth
//	@Router			/meta/assets/select [post]
func (app *application) selectAssetsHandler(w http.ResponseWriter, r *http.Request) {
	var payload SelectAssetsPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	sess := getSessionFromContext(r)
	err := app.engine.SelectAssets(sess, workflow.SelectedAssets{
		PageID:      payload.PageID,
		InstagramID: payload.InstagramID,
		AdAccountID: payload.AdAccountID,
	})
	if err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, sess.Snapshot()); err != nil {
		app.internalServerError(w, r, err)
	}
}

// launchCampaignHandler godoc
//
//	@Summary		Launch the campaign
//	@Description	Creates the campaign container in a paused state, then returns the reference code.
//	@Tags			meta
//	@Produce		json
//	@Success		200	{object}	workflow.LaunchResult
//	@Failure		400	{object}	error
//	@Failure		409	{object}	error
//	@Failure		502	{object}	error	"the Graph API rejected the campaign"
//	@Security		ApiKeyAuth
//	@Router			/meta/launch [post]
func (app *application) launchCampaignHandler(w http.ResponseWriter, r *http.Request) {
	sess := getSessionFromContext(r)

	result, err := app.engine.Launch(r.Context(), sess)
	if err != nil {
		app.workflowErrorResponse(w, r, err)
		return
	}

	if app.config.mail.enabled && app.config.mail.notifyTo != "" {
		go app.sendLaunchConfirmation(sess.Snapshot(), result)
	}

	if err := app.jsonResponse(w, http.StatusOK, result); err != nil {
		app.internalServerError(w, r, err)
	}
}

// sendLaunchConfirmation is best effort; a mail failure never touches
// the launch outcome.
func (app *application) sendLaunchConfirmation(snap workflow.Snapshot, result workflow.LaunchResult) {
	data := struct {
		Username      string
		CampaignName  string
		CampaignID    string
		ReferenceCode string
		BudgetAmount  float64
		Currency      string
		Duration      int
	}{
		Username:      snap.Brand.BusinessName,
		CampaignName:  snap.Brand.BusinessName,
		CampaignID:    result.CampaignID,
		ReferenceCode: result.ReferenceCode,
		BudgetAmount:  snap.Settings.BudgetAmount,
		Currency:      snap.Settings.Currency,
		Duration:      snap.Settings.Duration,
	}

	status, err := app.mailer.Send(mailer.LaunchConfirmationTemplate, snap.Brand.BusinessName, app.config.mail.notifyTo, data)
	if err != nil {
		app.logger.Errorw("launch confirmation email failed", "error", err.Error(), "campaign", result.CampaignID)
		return
	}
	app.logger.Infow("launch confirmation email sent", "status", status, "campaign", result.CampaignID)
}
