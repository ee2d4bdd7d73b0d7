package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bartchat/internal/chat"
)

type ChatHandler struct {
	Service *chat.Service
}

type CreateConversationRequest struct {
	Title        string `json:"title"`
	FirstMessage string `json:"first_message"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type RenameConversationRequest struct {
	Title string `json:"title"`
}

func (h *ChatHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	detail, err := h.Service.CreateConversation(r.Context(), callerID(r), req.Title, req.FirstMessage)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"message":      "Conversation created",
		"conversation": detail.Conversation,
		"turns":        detail.Turns,
	})
}

func (h *ChatHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.Service.ListConversations(r.Context(), callerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": convs,
	})
}

func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	detail, err := h.Service.GetConversation(r.Context(), id, callerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"conversation": detail.Conversation,
		"turns":        detail.Turns,
	})
}

func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	result, err := h.Service.SendTurn(r.Context(), id, callerID(r), req.Message)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"message":   "Message sent successfully",
		"response":  result.Completion,
		"timestamp": result.CreatedAt,
		"usage":     result.Usage,
	})
}

func (h *ChatHandler) RenameConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req RenameConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	if err := h.Service.RenameConversation(r.Context(), id, callerID(r), req.Title); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Conversation renamed")
}

func (h *ChatHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteConversation(r.Context(), id, callerID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Conversation deleted")
}

func (h *ChatHandler) SummarizeConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	summary, err := h.Service.Summarize(r.Context(), id, callerID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"summary": summary,
	})
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid conversation id")
		return 0, false
	}
	return id, true
}
