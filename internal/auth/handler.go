package auth

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/dlrodev92/my-portfolio-api/internal/httpx"
	"github.com/dlrodev92/my-portfolio-api/internal/transport"
)

// Handler exchanges the single admin credential for a signed token.
type Handler struct {
	manager       *Manager
	adminEmail    string
	adminPassword string
	log           *slog.Logger
}

func NewHandler(manager *Manager, adminEmail, adminPassword string, log *slog.Logger) *Handler {
	return &Handler{
		manager:       manager,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		log:           log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginUser struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    loginUser `json:"user"`
}

// Login compares against the configured admin pair and answers every
// mismatch with the same generic 401. No rate limiting or lockout here.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.log

	if h.manager == nil || len(h.manager.Secret) == 0 {
		transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
		return
	}

	var req loginRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	emailOK := h.adminEmail != "" &&
		subtle.ConstantTimeCompare([]byte(req.Email), []byte(h.adminEmail)) == 1
	passwordOK := VerifyPassword(h.adminPassword, req.Password)
	if !emailOK || !passwordOK {
		log.Warn("login: invalid credentials")
		transport.WriteError(w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, err := h.manager.NewToken(h.adminEmail, "admin")
	if err != nil {
		log.Error("login: token issue failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "login failed", nil)
		return
	}

	log.Info("login: ok")
	transport.WriteJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   token,
		User:    loginUser{Email: h.adminEmail, Role: "admin"},
	})
}
