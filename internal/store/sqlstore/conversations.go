package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"bartchat/internal/models"
	"bartchat/internal/store"
)

func (s *SQLStore) CreateConversation(ownerID int, title string) (*models.Conversation, error) {
	now := time.Now().UTC()
	var id int
	query := s.rebind("INSERT INTO conversations (title, owner_id, created_at, updated_at) VALUES (?, ?, ?, ?) RETURNING id")
	err := s.db.QueryRow(query, title, ownerID, now, now).Scan(&id)
	if err != nil {
		return nil, err
	}
	return &models.Conversation{
		ID:        id,
		Title:     title,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLStore) GetConversation(id int) (*models.Conversation, error) {
	var conv models.Conversation
	query := s.rebind("SELECT id, title, owner_id, created_at, updated_at FROM conversations WHERE id = ?")
	err := s.db.QueryRow(query, id).Scan(&conv.ID, &conv.Title, &conv.OwnerID, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns the owner's conversations, most recently
// active first.
func (s *SQLStore) ListConversations(ownerID int) ([]models.Conversation, error) {
	query := s.rebind(`
		SELECT id, title, owner_id, created_at, updated_at
		FROM conversations
		WHERE owner_id = ?
		ORDER BY updated_at DESC, id DESC
	`)
	rows, err := s.db.Query(query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []models.Conversation
	for rows.Next() {
		var conv models.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.OwnerID, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (s *SQLStore) RenameConversation(id int, title string) error {
	query := s.rebind("UPDATE conversations SET title = ? WHERE id = ?")
	result, err := s.db.Exec(query, title, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AppendTurn inserts the prompt/completion pair and bumps the conversation's
// updated_at in a single transaction, so a reader never observes one without
// the other.
func (s *SQLStore) AppendTurn(conversationID int, prompt, completion string) (*models.Turn, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var id int
	query := s.rebind("INSERT INTO turns (conversation_id, prompt, completion, created_at, updated_at) VALUES (?, ?, ?, ?, ?) RETURNING id")
	if err := tx.QueryRow(query, conversationID, prompt, completion, now, now).Scan(&id); err != nil {
		return nil, err
	}

	query = s.rebind("UPDATE conversations SET updated_at = ? WHERE id = ?")
	result, err := tx.Exec(query, now, conversationID)
	if err != nil {
		return nil, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &models.Turn{
		ID:             id,
		ConversationID: conversationID,
		Prompt:         prompt,
		Completion:     completion,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ListTurns returns turns oldest first. This ordering becomes the model's
// context window, so it must match creation order.
func (s *SQLStore) ListTurns(conversationID int) ([]models.Turn, error) {
	query := s.rebind(`
		SELECT id, conversation_id, prompt, completion, created_at, updated_at
		FROM turns
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`)
	rows, err := s.db.Query(query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var t models.Turn
		if err := rows.Scan(&t.ID, &t.ConversationID, &t.Prompt, &t.Completion, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLStore) CountTurns(conversationID int) (int, error) {
	var count int
	query := s.rebind("SELECT COUNT(*) FROM turns WHERE conversation_id = ?")
	err := s.db.QueryRow(query, conversationID).Scan(&count)
	return count, err
}

// DeleteConversation removes the conversation and all of its turns as one
// unit.
func (s *SQLStore) DeleteConversation(id int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := s.rebind("DELETE FROM turns WHERE conversation_id = ?")
	if _, err := tx.Exec(query, id); err != nil {
		return err
	}

	query = s.rebind("DELETE FROM conversations WHERE id = ?")
	result, err := tx.Exec(query, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return store.ErrNotFound
	}

	return tx.Commit()
}
