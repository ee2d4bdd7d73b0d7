package sqlstore

import (
	"database/sql"
	"errors"
	"time"

	"bartchat/internal/models"
	"bartchat/internal/store"
)

func (s *SQLStore) CreateUser(user *models.User) error {
	now := time.Now().UTC()
	query := s.rebind("INSERT INTO users (username, email, password, external_id, name, created_at) VALUES (?, ?, ?, ?, ?, ?) RETURNING id")
	err := s.db.QueryRow(query,
		user.Username, user.Email,
		nullable(user.Password), nullable(user.ExternalID), nullable(user.Name),
		now,
	).Scan(&user.ID)
	if err != nil {
		return err
	}
	user.CreatedAt = now
	return nil
}

const userColumns = "id, username, email, COALESCE(password, ''), COALESCE(external_id, ''), COALESCE(name, ''), created_at"

func (s *SQLStore) getUser(where string, arg interface{}) (*models.User, error) {
	var user models.User
	query := s.rebind("SELECT " + userColumns + " FROM users WHERE " + where)
	err := s.db.QueryRow(query, arg).Scan(
		&user.ID, &user.Username, &user.Email, &user.Password,
		&user.ExternalID, &user.Name, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLStore) GetUserByUsername(username string) (*models.User, error) {
	return s.getUser("username = ?", username)
}

func (s *SQLStore) GetUserByEmail(email string) (*models.User, error) {
	return s.getUser("email = ?", email)
}

func (s *SQLStore) GetUserByID(id int) (*models.User, error) {
	return s.getUser("id = ?", id)
}

func (s *SQLStore) GetUserByExternalID(externalID string) (*models.User, error) {
	return s.getUser("external_id = ?", externalID)
}

func (s *SQLStore) UpdateUserProfile(id int, name, email string) error {
	query := s.rebind("UPDATE users SET name = ?, email = ? WHERE id = ?")
	result, err := s.db.Exec(query, nullable(name), email, id)
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

func (s *SQLStore) ConversationCount(ownerID int) (int, error) {
	var count int
	query := s.rebind("SELECT COUNT(*) FROM conversations WHERE owner_id = ?")
	err := s.db.QueryRow(query, ownerID).Scan(&count)
	return count, err
}

func (s *SQLStore) TurnCountForOwner(ownerID int) (int, error) {
	var count int
	query := s.rebind(`
		SELECT COUNT(*)
		FROM turns t
		JOIN conversations c ON t.conversation_id = c.id
		WHERE c.owner_id = ?
	`)
	err := s.db.QueryRow(query, ownerID).Scan(&count)
	return count, err
}

func nullable(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}
