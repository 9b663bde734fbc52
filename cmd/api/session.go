package main

import (
	"encoding/json"
	"net/http"
)

// SavePushTokenRequest represents the payload for saving/updating a push token
type SavePushTokenRequest struct {
	Token      string          `json:"token" validate:"required"`
	DeviceInfo json.RawMessage `json:"device_info"`
}

// RemovePushTokenRequest represents the payload for removing a push token
type RemovePushTokenRequest struct {
	Token string `json:"token" validate:"required"`
}

// CreateSession godoc
//
//	@Summary		Start a guest session
//	@Description	Mints a session token the client sends as a bearer token on cart and checkout requests
//	@Tags			Session
//	@Produce		json
//	@Success		201	{object}	map[string]string
//	@Router			/sessions [post]
func (app *application) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	token, sessionID, err := app.authenticator.GenerateSessionToken()
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.logger.Infow("guest session created", "session", sessionID)

	data := map[string]string{
		"token":     token,
		"sessionId": sessionID,
	}
	if err := app.jsonResponse(w, http.StatusCreated, data); err != nil {
		app.internalServerError(w, r, err)
	}
}

// SavePushToken godoc
//
//	@Summary		Save or update a push notification token
//	@Description	Stores or updates the session's Expo push token along with optional device info
//	@Tags			Notifications
//	@Accept			json
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Security		ApiKeyAuth
//	@Router			/push-tokens [post]
func (app *application) savePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload SavePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.pushTokens.AddOrUpdateToken(r.Context(), sessionID, payload.Token, payload.DeviceInfo); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemovePushToken godoc
//
//	@Summary		Remove a push notification token
//	@Description	Deletes a specific push token for the current session
//	@Tags			Notifications
//	@Accept			json
//	@Success		204
//	@Failure		400	{object}	error	"Bad Request"
//	@Security		ApiKeyAuth
//	@Router			/push-tokens [delete]
func (app *application) removePushTokenHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := getSessionFromContext(r)

	var payload RemovePushTokenRequest
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.pushTokens.RemoveToken(r.Context(), sessionID, payload.Token); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
