package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bartchat/internal/store"
)

type UserHandler struct {
	Store store.Store
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUserByID(callerID(r))
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load profile")
		return
	}
	conversationCount, err := h.Store.ConversationCount(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load profile")
		return
	}
	totalMessages, err := h.Store.TurnCountForOwner(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"user":               user,
		"conversation_count": conversationCount,
		"total_messages":     totalMessages,
	})
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	type UpdateRequest struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	id := callerID(r)
	user, err := h.Store.GetUserByID(id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to update profile")
		return
	}
	if req.Email == "" {
		req.Email = user.Email
	}
	if req.Email != user.Email {
		if existing, err := h.Store.GetUserByEmail(req.Email); err == nil && existing.ID != id {
			writeMessage(w, http.StatusConflict, false, "Email already registered")
			return
		}
	}

	if err := h.Store.UpdateUserProfile(id, req.Name, req.Email); err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to update profile")
		return
	}
	writeMessage(w, http.StatusOK, true, "Profile updated")
}

// GetStats reports conversation totals and recent activity. Store faults
// surface as errors rather than an empty stats block.
func (h *UserHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUserByID(callerID(r))
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load stats")
		return
	}

	totalConversations, err := h.Store.ConversationCount(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load stats")
		return
	}
	totalMessages, err := h.Store.TurnCountForOwner(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load stats")
		return
	}
	conversations, err := h.Store.ListConversations(user.ID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Failed to load stats")
		return
	}
	if len(conversations) > 5 {
		conversations = conversations[:5]
	}

	type recentConversation struct {
		ID           int       `json:"id"`
		Title        string    `json:"title"`
		MessageCount int       `json:"message_count"`
		UpdatedAt    time.Time `json:"updated_at"`
	}
	recent := make([]recentConversation, 0, len(conversations))
	for _, conv := range conversations {
		count, err := h.Store.CountTurns(conv.ID)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, false, "Failed to load stats")
			return
		}
		recent = append(recent, recentConversation{
			ID:           conv.ID,
			Title:        conv.Title,
			MessageCount: count,
			UpdatedAt:    conv.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":              true,
		"total_conversations":  totalConversations,
		"total_messages":       totalMessages,
		"account_age_days":     int(time.Since(user.CreatedAt).Hours() / 24),
		"recent_conversations": recent,
	})
}
