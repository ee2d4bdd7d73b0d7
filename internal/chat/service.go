// Package chat implements the conversation service: creating conversations,
// replaying their history against the completion gateway, and persisting
// turns, with every id-addressed operation gated by an ownership check.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"bartchat/internal/gateway"
	"bartchat/internal/models"
	"bartchat/internal/store"
)

const (
	roleUser      = "user"
	roleAssistant = "assistant"
)

const emptySummary = "No messages yet"

// Store is the subset of the message store the service needs.
type Store interface {
	CreateConversation(ownerID int, title string) (*models.Conversation, error)
	GetConversation(id int) (*models.Conversation, error)
	ListConversations(ownerID int) ([]models.Conversation, error)
	RenameConversation(id int, title string) error
	DeleteConversation(id int) error
	AppendTurn(conversationID int, prompt, completion string) (*models.Turn, error)
	ListTurns(conversationID int) ([]models.Turn, error)
}

// Completer is the completion gateway surface used by the service.
type Completer interface {
	Complete(ctx context.Context, msgs []models.ChatMessage, opts gateway.Options) (gateway.Completion, error)
	GenerateTitle(ctx context.Context, firstMessage string) string
}

type Service struct {
	store Store
	llm   Completer
}

func NewService(s Store, llm Completer) (*Service, error) {
	if s == nil {
		return nil, errors.New("chat: store must not be nil")
	}
	if llm == nil {
		return nil, errors.New("chat: completer must not be nil")
	}
	return &Service{store: s, llm: llm}, nil
}

// ConversationDetail is a conversation plus its full ordered turn sequence.
type ConversationDetail struct {
	Conversation models.Conversation `json:"conversation"`
	Turns        []models.Turn       `json:"turns"`
}

// TurnResult is the outcome of a successful SendTurn.
type TurnResult struct {
	Completion string            `json:"response"`
	CreatedAt  time.Time         `json:"timestamp"`
	Usage      models.TokenUsage `json:"usage"`
}

// Summary is a condensed view of a conversation.
type Summary struct {
	ID            int       `json:"id"`
	Title         string    `json:"title"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	LastMessageAt time.Time `json:"last_message_time"`
	Preview       string    `json:"summary"`
}

// CreateConversation creates a conversation for ownerID. When firstMessage is
// non-empty and no explicit title was requested, the title is derived from it
// via the gateway; the first message is then sent through the full turn flow
// before returning, so the new conversation already carries its first turn.
// A gateway failure on that first turn leaves the conversation in place with
// zero turns rather than failing creation.
func (s *Service) CreateConversation(ctx context.Context, ownerID int, title, firstMessage string) (*ConversationDetail, error) {
	title = strings.TrimSpace(title)
	firstMessage = strings.TrimSpace(firstMessage)

	if firstMessage != "" && (title == "" || title == gateway.FallbackTitle) {
		title = s.llm.GenerateTitle(ctx, firstMessage)
	}
	if title == "" {
		title = gateway.FallbackTitle
	}

	conv, err := s.store.CreateConversation(ownerID, title)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "create_conversation", err)
	}
	detail := &ConversationDetail{Conversation: *conv}

	if firstMessage == "" {
		return detail, nil
	}

	if _, err := s.sendTurn(ctx, conv, firstMessage); err != nil {
		var serviceErr *Error
		if errors.As(err, &serviceErr) && serviceErr.Code == ErrorGateway {
			log.Warn().Err(err).Int("conversation_id", conv.ID).Msg("first message completion failed; conversation created without turns")
			return detail, nil
		}
		return nil, err
	}

	fresh, err := s.store.GetConversation(conv.ID)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "get_conversation", err)
	}
	turns, err := s.store.ListTurns(conv.ID)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "list_turns", err)
	}
	detail.Conversation = *fresh
	detail.Turns = turns
	return detail, nil
}

// SendTurn replays the conversation's full history, appends the new prompt as
// the final user entry, and persists the prompt/completion pair atomically.
// On gateway failure nothing is written.
func (s *Service) SendTurn(ctx context.Context, conversationID, callerID int, prompt string) (*TurnResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, newError(ErrorInvalidInput, "empty_message", nil)
	}
	conv, err := s.getOwned(conversationID, callerID)
	if err != nil {
		return nil, err
	}
	return s.sendTurn(ctx, conv, prompt)
}

func (s *Service) sendTurn(ctx context.Context, conv *models.Conversation, prompt string) (*TurnResult, error) {
	turns, err := s.store.ListTurns(conv.ID)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "list_turns", err)
	}

	history := make([]models.ChatMessage, 0, 2*len(turns)+1)
	for _, t := range turns {
		history = append(history,
			models.ChatMessage{Role: roleUser, Content: t.Prompt},
			models.ChatMessage{Role: roleAssistant, Content: t.Completion},
		)
	}
	history = append(history, models.ChatMessage{Role: roleUser, Content: prompt})

	out, err := s.llm.Complete(ctx, history, gateway.Options{})
	if err != nil {
		return nil, newError(ErrorGateway, "completion_failed", err)
	}

	turn, err := s.store.AppendTurn(conv.ID, prompt, out.Text)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "append_turn", err)
	}

	return &TurnResult{
		Completion: out.Text,
		CreatedAt:  turn.CreatedAt,
		Usage:      out.Usage,
	}, nil
}

// ListConversations returns the caller's own conversations, most recently
// active first.
func (s *Service) ListConversations(ctx context.Context, callerID int) ([]models.Conversation, error) {
	convs, err := s.store.ListConversations(callerID)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "list_conversations", err)
	}
	return convs, nil
}

func (s *Service) GetConversation(ctx context.Context, conversationID, callerID int) (*ConversationDetail, error) {
	conv, err := s.getOwned(conversationID, callerID)
	if err != nil {
		return nil, err
	}
	turns, err := s.store.ListTurns(conv.ID)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "list_turns", err)
	}
	return &ConversationDetail{Conversation: *conv, Turns: turns}, nil
}

func (s *Service) RenameConversation(ctx context.Context, conversationID, callerID int, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return newError(ErrorInvalidInput, "empty_title", nil)
	}
	if _, err := s.getOwned(conversationID, callerID); err != nil {
		return err
	}
	if err := s.store.RenameConversation(conversationID, title); err != nil {
		return newError(ErrorStoreFailure, "rename_conversation", err)
	}
	return nil
}

func (s *Service) DeleteConversation(ctx context.Context, conversationID, callerID int) error {
	if _, err := s.getOwned(conversationID, callerID); err != nil {
		return err
	}
	if err := s.store.DeleteConversation(conversationID); err != nil {
		return newError(ErrorStoreFailure, "delete_conversation", err)
	}
	return nil
}

// Summarize returns conversation metadata plus a preview built from at most
// the first three turns, each side clipped to 50 characters.
func (s *Service) Summarize(ctx context.Context, conversationID, callerID int) (*Summary, error) {
	conv, err := s.getOwned(conversationID, callerID)
	if err != nil {
		return nil, err
	}
	turns, err := s.store.ListTurns(conv.ID)
	if err != nil {
		return nil, newError(ErrorStoreFailure, "list_turns", err)
	}

	summary := &Summary{
		ID:            conv.ID,
		Title:         conv.Title,
		MessageCount:  len(turns),
		CreatedAt:     conv.CreatedAt,
		UpdatedAt:     conv.UpdatedAt,
		LastMessageAt: conv.CreatedAt,
	}
	if len(turns) == 0 {
		summary.Preview = emptySummary
		return summary, nil
	}
	summary.LastMessageAt = turns[len(turns)-1].CreatedAt

	preview := turns
	if len(preview) > 3 {
		preview = preview[:3]
	}
	parts := make([]string, 0, 2*len(preview))
	for _, t := range preview {
		parts = append(parts,
			"User: "+clip(t.Prompt, 50)+"...",
			"Bart: "+clip(t.Completion, 50)+"...",
		)
	}
	summary.Preview = strings.Join(parts, " | ")
	return summary, nil
}

func (s *Service) getOwned(conversationID, callerID int) (*models.Conversation, error) {
	conv, err := s.store.GetConversation(conversationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newError(ErrorNotFound, "conversation_not_found", err)
	}
	if err != nil {
		return nil, newError(ErrorStoreFailure, "get_conversation", err)
	}
	if err := assertOwner(conv, callerID); err != nil {
		return nil, err
	}
	return conv, nil
}

// clip shortens s to at most n characters without splitting a rune.
func clip(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}
