package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/accounthub/apiserver/internal/services"
	"github.com/accounthub/apiserver/internal/store"
	"github.com/accounthub/apiserver/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// UserHandler provides the account HTTP endpoints.
type UserHandler struct {
	accounts *services.AccountService
	logger   *zap.Logger
}

// NewUserHandler constructs a UserHandler with the provided dependencies.
func NewUserHandler(accounts *services.AccountService, logger *zap.Logger) *UserHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserHandler{accounts: accounts, logger: logger}
}

// UserRouter registers the account routes on the given router.
func UserRouter(r chi.Router, accounts *services.AccountService, logger *zap.Logger) {
	handler := NewUserHandler(accounts, logger)

	r.Post("/signup", handler.SignUp)
	r.Post("/login", handler.Login)
	r.Get("/users", handler.ListUsers)
}

type SignUpRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUp creates a new user account.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)

	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username cannot be empty")
		return
	}
	// The password is validated trimmed but stored as submitted.
	if strings.TrimSpace(req.Password) == "" {
		writeError(w, http.StatusBadRequest, "Password cannot be empty")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email cannot be empty")
		return
	}

	_, err := h.accounts.SignUp(r.Context(), services.SignUpParams{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		h.logger.Error("sign-up failed", zap.String("username", req.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeMessage(w, http.StatusOK, "User created successfully")
}

// Login verifies credentials and records the login time. Unknown usernames
// and wrong passwords produce identical responses.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	_, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "Invalid username or password")
		case errors.Is(err, services.ErrNoPassword):
			writeError(w, http.StatusBadRequest, "User has no password stored")
		default:
			h.logger.Error("login failed", zap.String("username", req.Username), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to authenticate")
		}
		return
	}

	writeMessage(w, http.StatusOK, "Logged in successfully")
}

// ListUsers returns every account. Password hashes never leave the server;
// the User type redacts them on serialization.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []types.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
