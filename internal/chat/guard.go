package chat

import "bartchat/internal/models"

// assertOwner is the single ownership check gating every operation that
// addresses a conversation by id. There are no roles or shared
// conversations; the owner id either matches the caller or the call is
// denied.
func assertOwner(conv *models.Conversation, callerID int) error {
	if conv.OwnerID != callerID {
		return newError(ErrorAccessDenied, "not_conversation_owner", nil)
	}
	return nil
}
