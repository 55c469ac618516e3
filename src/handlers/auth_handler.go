// backend/src/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/username/tradejournal/backend/src/logger"
	"github.com/username/tradejournal/backend/src/model"
	"github.com/username/tradejournal/backend/src/security"
	"github.com/username/tradejournal/backend/src/security/validation"
	"github.com/username/tradejournal/backend/src/utils"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
var passwordRegex = regexp.MustCompile(`^.{6,}$`)

type UserHandler struct {
	authService *security.AuthService
	db          *sql.DB
}

func NewUserHandler(authService *security.AuthService, db *sql.DB) *UserHandler {
	return &UserHandler{authService: authService, db: db}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        *model.User `json:"user"`
}

func (h *UserHandler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	credentials.Email = strings.ToLower(validation.SanitizeText(strings.TrimSpace(credentials.Email)))
	credentials.Password = strings.TrimSpace(credentials.Password)

	if err := validation.ValidateStringNotEmpty(credentials.Email, "Email"); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !emailRegex.MatchString(credentials.Email) {
		utils.SendJSONError(w, "Invalid email format", http.StatusBadRequest)
		return
	}
	if !passwordRegex.MatchString(credentials.Password) {
		utils.SendJSONError(w, "Password must be at least 6 characters long", http.StatusBadRequest)
		return
	}

	_, err := model.GetUserByEmail(r.Context(), h.db, credentials.Email)
	if err == nil {
		utils.SendJSONError(w, "Email address already in use", http.StatusConflict)
		return
	} else if !errors.Is(err, model.ErrUserNotFound) {
		logger.FromContext(r.Context()).Error("Error checking email uniqueness", "error", err)
		utils.SendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := h.authService.HashPassword(credentials.Password)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to hash password", "error", err)
		utils.SendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}
	user := &model.User{Email: credentials.Email, Password: hashedPassword}
	if err := user.CreateUser(r.Context(), h.db); err != nil {
		logger.FromContext(r.Context()).Error("Failed to create user", "error", err)
		utils.SendJSONError(w, "Failed to process registration", http.StatusInternalServerError)
		return
	}

	logger.FromContext(r.Context()).Info("User registered", "userID", user.ID)
	h.respondWithToken(w, r, user, http.StatusCreated)
}

func (h *UserHandler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var credentials credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := model.GetUserByEmail(r.Context(), h.db, credentials.Email)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			logger.FromContext(r.Context()).Error("Failed to load user on login", "error", err)
		}
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err := user.CheckPassword(credentials.Password); err != nil {
		logger.FromContext(r.Context()).Warn("Login failed: wrong password", "userID", user.ID)
		utils.SendJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.respondWithToken(w, r, user, http.StatusOK)
}

func (h *UserHandler) respondWithToken(w http.ResponseWriter, r *http.Request, user *model.User, status int) {
	token, err := h.authService.GenerateToken(user.ID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to generate access token", "userID", user.ID, "error", err)
		utils.SendJSONError(w, "Failed to generate access token", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, status, tokenResponse{AccessToken: token, User: user})
}
