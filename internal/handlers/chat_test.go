package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"

	"bartchat/internal/auth"
	"bartchat/internal/chat"
	"bartchat/internal/gateway"
	"bartchat/internal/middleware"
	"bartchat/internal/models"
	"bartchat/internal/store/sqlstore"
)

// stubCompleter stands in for the OpenAI gateway in handler tests.
type stubCompleter struct {
	completion string
	title      string
}

func (s *stubCompleter) Complete(_ context.Context, _ []models.ChatMessage, _ gateway.Options) (gateway.Completion, error) {
	return gateway.Completion{
		Text:  s.completion,
		Usage: models.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (s *stubCompleter) GenerateTitle(_ context.Context, _ string) string {
	if s.title == "" {
		return gateway.FallbackTitle
	}
	return s.title
}

func newTestChatHandler(t *testing.T) (*ChatHandler, *sqlstore.SQLStore, *models.User) {
	t.Helper()
	store, err := sqlstore.New("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	user := &models.User{Username: "user1", Email: "user1@example.com", Password: "pass"}
	if err := store.CreateUser(user); err != nil {
		t.Fatal(err)
	}
	service, err := chat.NewService(store, &stubCompleter{completion: "Hi! How can I help?", title: "Friendly Greeting"})
	if err != nil {
		t.Fatal(err)
	}
	return &ChatHandler{Service: service}, store, user
}

func sessionCookie(userID int) *http.Cookie {
	return &http.Cookie{Name: "user_id", Value: auth.SignCookie(strconv.Itoa(userID))}
}

func TestCreateConversation(t *testing.T) {
	handler, store, user := newTestChatHandler(t)

	reqBody := map[string]string{"first_message": "Hello"}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequest("POST", "/conversations", bytes.NewBuffer(body))
	req.AddCookie(sessionCookie(user.ID))

	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.CreateConversation)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusCreated {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusCreated)
	}

	convs, _ := store.ListConversations(user.ID)
	if len(convs) != 1 {
		t.Fatalf("Expected 1 conversation, got %d", len(convs))
	}
	if convs[0].Title != "Friendly Greeting" {
		t.Errorf("Expected generated title 'Friendly Greeting', got '%s'", convs[0].Title)
	}

	turns, _ := store.ListTurns(convs[0].ID)
	if len(turns) != 1 {
		t.Fatalf("Expected first turn to be persisted, got %d turns", len(turns))
	}
	if turns[0].Prompt != "Hello" {
		t.Errorf("Expected prompt 'Hello', got '%s'", turns[0].Prompt)
	}
}

func TestCreateConversation_Unauthorized(t *testing.T) {
	handler, _, _ := newTestChatHandler(t)

	req, _ := http.NewRequest("POST", "/conversations", bytes.NewBufferString("{}"))
	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.CreateConversation)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusUnauthorized {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusUnauthorized)
	}
}

func TestSendMessage(t *testing.T) {
	handler, store, user := newTestChatHandler(t)
	conv, _ := store.CreateConversation(user.ID, "Chat")

	reqBody := map[string]string{"message": "How are you?"}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequest("POST", "/conversations/"+strconv.Itoa(conv.ID)+"/messages", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"id": strconv.Itoa(conv.ID)})
	req.AddCookie(sessionCookie(user.ID))

	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var resp struct {
		Success  bool              `json:"success"`
		Response string            `json:"response"`
		Usage    models.TokenUsage `json:"usage"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.Success {
		t.Error("Expected success response")
	}
	if resp.Response != "Hi! How can I help?" {
		t.Errorf("Expected completion text, got '%s'", resp.Response)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("Expected usage to be reported, got %+v", resp.Usage)
	}
}

func TestSendMessage_OtherUsersConversation(t *testing.T) {
	handler, store, user := newTestChatHandler(t)
	conv, _ := store.CreateConversation(user.ID, "Owner's chat")

	intruder := &models.User{Username: "intruder", Email: "intruder@example.com", Password: "pass"}
	store.CreateUser(intruder)

	reqBody := map[string]string{"message": "Let me in"}
	body, _ := json.Marshal(reqBody)

	req, _ := http.NewRequest("POST", "/conversations/"+strconv.Itoa(conv.ID)+"/messages", bytes.NewBuffer(body))
	req = mux.SetURLVars(req, map[string]string{"id": strconv.Itoa(conv.ID)})
	req.AddCookie(sessionCookie(intruder.ID))

	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.SendMessage)).ServeHTTP(rr, req)

	// Denial must look exactly like absence
	if status := rr.Code; status != http.StatusNotFound {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusNotFound)
	}

	turns, _ := store.ListTurns(conv.ID)
	if len(turns) != 0 {
		t.Errorf("Expected no turns after denied call, got %d", len(turns))
	}
}

func TestGetConversation_RoundTrip(t *testing.T) {
	handler, store, user := newTestChatHandler(t)

	// Create with a first message, then fetch it back
	body, _ := json.Marshal(map[string]string{"first_message": "Hello"})
	req, _ := http.NewRequest("POST", "/conversations", bytes.NewBuffer(body))
	req.AddCookie(sessionCookie(user.ID))
	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.CreateConversation)).ServeHTTP(rr, req)

	convs, _ := store.ListConversations(user.ID)
	id := strconv.Itoa(convs[0].ID)

	req, _ = http.NewRequest("GET", "/conversations/"+id, nil)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	req.AddCookie(sessionCookie(user.ID))
	rr = httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.GetConversation)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var resp struct {
		Turns []models.Turn `json:"turns"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Turns) != 1 {
		t.Fatalf("Expected exactly 1 turn, got %d", len(resp.Turns))
	}
	if resp.Turns[0].Prompt != "Hello" {
		t.Errorf("Expected prompt 'Hello', got '%s'", resp.Turns[0].Prompt)
	}
}

func TestDeleteConversation(t *testing.T) {
	handler, store, user := newTestChatHandler(t)
	conv, _ := store.CreateConversation(user.ID, "Chat to Delete")
	store.AppendTurn(conv.ID, "Hello", "Hi!")

	id := strconv.Itoa(conv.ID)
	req, _ := http.NewRequest("DELETE", "/conversations/"+id, nil)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	req.AddCookie(sessionCookie(user.ID))

	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.DeleteConversation)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	convs, _ := store.ListConversations(user.ID)
	if len(convs) != 0 {
		t.Errorf("Expected conversation to be deleted, got %d", len(convs))
	}
}

func TestSummarizeConversation(t *testing.T) {
	handler, store, user := newTestChatHandler(t)
	conv, _ := store.CreateConversation(user.ID, "Chat")

	id := strconv.Itoa(conv.ID)
	req, _ := http.NewRequest("GET", "/conversations/"+id+"/summary", nil)
	req = mux.SetURLVars(req, map[string]string{"id": id})
	req.AddCookie(sessionCookie(user.ID))

	rr := httptest.NewRecorder()
	middleware.AuthMiddleware(http.HandlerFunc(handler.SummarizeConversation)).ServeHTTP(rr, req)

	if status := rr.Code; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v",
			status, http.StatusOK)
	}

	var resp struct {
		Summary chat.Summary `json:"summary"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Summary.Preview != "No messages yet" {
		t.Errorf("Expected empty-conversation sentinel, got '%s'", resp.Summary.Preview)
	}
}
