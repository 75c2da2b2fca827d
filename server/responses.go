package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/did-storefront/actions"
	"github.com/rs/zerolog/log"
)

const contentTypeJSON = "application/json; charset=utf-8"

type errorBody struct {
	Error *actions.ActionError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// writeRead answers a read action: always 200, "null" when there is nothing to show
func writeRead(w http.ResponseWriter, payload json.RawMessage) {
	if payload == nil {
		payload = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, payload)
}

// writeMutation answers a mutation with its payload or its ActionError status
func writeMutation(w http.ResponseWriter, payload json.RawMessage, actionErr *actions.ActionError) {
	if actionErr != nil {
		writeJSON(w, actionErr.Status, errorBody{Error: actionErr})
		return
	}
	writeRead(w, payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: &actions.ActionError{Status: status, Message: message}})
}

// decodeJSON reads a bounded JSON request body into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return false
	}
	return true
}
