package controllers

// envelope namespaces every JSON payload the API writes, "data" for results,
// "error" for failures and "event" for websocket pushes.
type envelope map[string]interface{}

type closureFeedRequest struct {
	Action string `json:"action" validate:"required"`
}
