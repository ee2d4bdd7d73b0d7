package store

import (
	"errors"

	"bartchat/internal/models"
)

// ErrNotFound is returned when an addressed row does not exist. Any other
// error from a Store method is a fault of the underlying storage.
var ErrNotFound = errors.New("not found")

type Store interface {
	// User operations
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id int) (*models.User, error)
	GetUserByExternalID(externalID string) (*models.User, error)
	UpdateUserProfile(id int, name, email string) error
	ConversationCount(ownerID int) (int, error)
	TurnCountForOwner(ownerID int) (int, error)

	// Conversation operations
	CreateConversation(ownerID int, title string) (*models.Conversation, error)
	GetConversation(id int) (*models.Conversation, error)
	ListConversations(ownerID int) ([]models.Conversation, error)
	RenameConversation(id int, title string) error
	DeleteConversation(id int) error
	AppendTurn(conversationID int, prompt, completion string) (*models.Turn, error)
	ListTurns(conversationID int) ([]models.Turn, error)
	CountTurns(conversationID int) (int, error)
}
