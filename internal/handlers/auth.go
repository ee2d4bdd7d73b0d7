package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"bartchat/internal/auth"
	"bartchat/internal/models"
	"bartchat/internal/store"
)

type AuthHandler struct {
	Store store.Store
}

type Credentials struct {
	UsernameOrEmail string `json:"username_or_email"`
	Password        string `json:"password"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	type SignupRequest struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, false, "Username, email and password are required")
		return
	}

	if _, err := h.Store.GetUserByUsername(req.Username); err == nil {
		writeMessage(w, http.StatusConflict, false, "Username already exists")
		return
	}
	if _, err := h.Store.GetUserByEmail(req.Email); err == nil {
		writeMessage(w, http.StatusConflict, false, "Email already registered")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Registration failed")
		return
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.Store.CreateUser(user); err != nil {
		writeMessage(w, http.StatusConflict, false, "Registration failed")
		return
	}

	writeMessage(w, http.StatusCreated, true, "Registration successful! Please login.")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}

	// Try username first, then email
	user, err := h.Store.GetUserByUsername(creds.UsernameOrEmail)
	if errors.Is(err, store.ErrNotFound) {
		user, err = h.Store.GetUserByEmail(creds.UsernameOrEmail)
	}
	if errors.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username/email or password")
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Login failed")
		return
	}
	// SSO accounts carry no password credential and cannot log in here.
	if user.Password == "" {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username/email or password")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		writeMessage(w, http.StatusUnauthorized, false, "Invalid username/email or password")
		return
	}

	setSessionCookie(w, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// SSOLogin is the hand-off point from the out-of-scope SSO handshake: the
// caller arrives already verified, carrying a stable external subject id.
// First login creates the account with no password credential.
func (h *AuthHandler) SSOLogin(w http.ResponseWriter, r *http.Request) {
	type SSORequest struct {
		ExternalID string `json:"external_id"`
		Username   string `json:"username"`
		Email      string `json:"email"`
		Name       string `json:"name"`
	}

	var req SSORequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, false, err.Error())
		return
	}
	if req.ExternalID == "" || req.Username == "" || req.Email == "" {
		writeMessage(w, http.StatusBadRequest, false, "External id, username and email are required")
		return
	}

	user, err := h.Store.GetUserByExternalID(req.ExternalID)
	if errors.Is(err, store.ErrNotFound) {
		user = &models.User{
			Username:   req.Username,
			Email:      req.Email,
			ExternalID: req.ExternalID,
			Name:       req.Name,
		}
		err = h.Store.CreateUser(user)
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, false, "Login failed")
		return
	}

	setSessionCookie(w, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	writeMessage(w, http.StatusOK, true, "Logout successful")
}

func setSessionCookie(w http.ResponseWriter, userID int) {
	http.SetCookie(w, &http.Cookie{
		Name:     "user_id",
		Value:    auth.SignCookie(strconv.Itoa(userID)),
		Path:     "/",
		HttpOnly: true,
	})
}
