package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/barterhub/timebank/pkg/models"
	"github.com/barterhub/timebank/pkg/repository"
)

type AuthHandler struct {
	users         repository.UserRepo
	jwtSecret     string
	tokenDuration time.Duration
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(users repository.UserRepo, jwtSecret string, tokenDuration time.Duration) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret, tokenDuration: tokenDuration}
}

type signupRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Category models.Category `json:"category"`
	Location string          `json:"location"`
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeValidated(w, r, "signup", &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		writeJSON(w, errorResponse{Error: "email already registered", Kind: "conflict"}, http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "Error hashing password", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Category:     req.Category,
		Location:     req.Location,
		TrustScore:   50,
		Registered:   true,
	}
	if err := h.users.CreateUser(r.Context(), &user); err != nil {
		http.Error(w, "Error creating user", http.StatusInternalServerError)
		return
	}

	tokenStr, err := h.issueToken(user.ID)
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, UserID: user.ID}, http.StatusOK)
}

func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeValidated(w, r, "signin", &req) {
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil || user == nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		http.Error(w, "Credentials not found", http.StatusUnauthorized)
		return
	}

	tokenStr, err := h.issueToken(user.ID)
	if err != nil {
		http.Error(w, "Error signing token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, authResponse{Token: tokenStr, UserID: user.ID}, http.StatusOK)
}

func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	// For stateless JWT, signout is client-side (just delete token)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, `{"message":"signed out"}`)
}

func (h *AuthHandler) issueToken(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(h.tokenDuration).Unix(),
	})
	return token.SignedString([]byte(h.jwtSecret))
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.users.GetUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDomainError(w, models.ErrNotFound)
		return
	}

	user.PasswordHash = ""
	writeJSON(w, user, http.StatusOK)
}

type meUpdateRequest struct {
	Name          *string          `json:"name"`
	Location      *string          `json:"location"`
	Category      *models.Category `json:"category"`
	Onboarded     *bool            `json:"onboarded"`
	PhoneVerified *bool            `json:"phone_verified"`
	EmailVerified *bool            `json:"email_verified"`
}

// UpdateMe applies a partial profile update. Users are never hard-deleted;
// lifecycle changes go through flags.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	uid, ok := callerID(r)
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req meUpdateRequest
	if !decodeValidated(w, r, "me_update", &req) {
		return
	}

	user, err := h.users.GetUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		writeDomainError(w, models.ErrNotFound)
		return
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Location != nil {
		user.Location = *req.Location
	}
	if req.Category != nil {
		user.Category = *req.Category
	}
	if req.Onboarded != nil {
		user.Onboarded = *req.Onboarded
	}
	if req.PhoneVerified != nil {
		user.PhoneVerified = *req.PhoneVerified
	}
	if req.EmailVerified != nil {
		user.EmailVerified = *req.EmailVerified
	}

	if err := h.users.UpdateUser(r.Context(), user); err != nil {
		http.Error(w, "failed to update user", http.StatusInternalServerError)
		return
	}

	user.PasswordHash = ""
	writeJSON(w, user, http.StatusOK)
}
