package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/neexbeast/travel-vibes/internal/auth"
	"github.com/neexbeast/travel-vibes/internal/itinerary"
	"github.com/neexbeast/travel-vibes/internal/storage"
)

type userJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserJSON(u *storage.User) userJSON {
	return userJSON{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

type authResponse struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (req registerRequest) validate() error {
	var errs itinerary.ValidationError
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, itinerary.FieldError{Field: "name", Message: "name is required"})
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		errs = append(errs, itinerary.FieldError{Field: "email", Message: "email must be a valid address"})
	}
	if len(req.Password) < auth.MinPasswordLength {
		errs = append(errs, itinerary.FieldError{Field: "password", Message: "password must be at least 8 characters"})
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.validate(); err != nil {
		writeValidation(w, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(w, "hashing password failed", "err", err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Name, req.Email, hash)
	if errors.Is(err, storage.ErrConflict) {
		writeError(w, http.StatusConflict, "An account with this email already exists.", nil)
		return
	}
	if err != nil {
		h.internalError(w, "create user failed", "email", req.Email, "err", err)
		return
	}

	h.writeSession(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "Email and password are required.", nil)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		h.internalError(w, "get user failed", "email", req.Email, "err", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password.", nil)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			h.log.Warn("password check failed", "user_id", user.ID, "err", err)
		}
		writeError(w, http.StatusUnauthorized, "Invalid email or password.", nil)
		return
	}

	h.writeSession(w, http.StatusOK, user)
}

// Me handles GET /api/auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.internalError(w, "get user failed", "user_id", userID, "err", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Account no longer exists.", nil)
		return
	}
	writeData(w, http.StatusOK, map[string]userJSON{"user": toUserJSON(user)})
}

func (h *Handlers) writeSession(w http.ResponseWriter, status int, user *storage.User) {
	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		h.internalError(w, "issuing token failed", "user_id", user.ID, "err", err)
		return
	}
	writeData(w, status, authResponse{User: toUserJSON(user), Token: token})
}
