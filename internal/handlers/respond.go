package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"bartchat/internal/chat"
	"bartchat/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": success,
		"message": message,
	})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Access denial and absence are deliberately indistinguishable, so the
// existence of another user's conversation never leaks.
func writeServiceError(w http.ResponseWriter, err error) {
	var serviceErr *chat.Error
	if !errors.As(err, &serviceErr) {
		writeMessage(w, http.StatusInternalServerError, false, "Operation failed")
		return
	}
	switch serviceErr.Code {
	case chat.ErrorNotFound, chat.ErrorAccessDenied:
		writeMessage(w, http.StatusNotFound, false, "Conversation not found")
	case chat.ErrorInvalidInput:
		writeMessage(w, http.StatusBadRequest, false, "Invalid request")
	case chat.ErrorGateway:
		reason := "Completion request failed"
		if serviceErr.Err != nil {
			reason = serviceErr.Err.Error()
		}
		writeMessage(w, http.StatusBadGateway, false, reason)
	default:
		writeMessage(w, http.StatusInternalServerError, false, "Operation failed")
	}
}

// callerID returns the authenticated user id placed in the request context
// by the auth middleware.
func callerID(r *http.Request) int {
	id, _ := r.Context().Value(middleware.UserIDKey).(int)
	return id
}
