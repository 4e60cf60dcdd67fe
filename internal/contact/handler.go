package contact

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/httpx"
	"github.com/dlrodev92/my-portfolio-api/internal/middleware"
	"github.com/dlrodev92/my-portfolio-api/internal/transport"
)

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type Request struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type Handler struct {
	mailer Mailer
	log    *slog.Logger
}

func NewHandler(mailer Mailer, log *slog.Logger) *Handler {
	return &Handler{
		mailer: mailer,
		log:    log,
	}
}

// Submit validates the form and forwards it as an email. Validation runs
// before any side effect; nothing is persisted.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req Request
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("contact submit: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	details := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		details["name"] = "required"
	}
	if strings.TrimSpace(req.Email) == "" {
		details["email"] = "required"
	} else if !emailShape.MatchString(strings.TrimSpace(req.Email)) {
		details["email"] = "invalid"
	}
	if strings.TrimSpace(req.Message) == "" {
		details["message"] = "required"
	}
	if len(details) > 0 {
		log.Warn("contact submit: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", details)
		return
	}

	if h.mailer == nil {
		log.Error("contact submit: mailer not configured")
		transport.WriteError(w, http.StatusInternalServerError, "mail delivery failed", nil)
		return
	}

	msg := Message{
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Subject: strings.TrimSpace(req.Subject),
		Body:    req.Message,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	messageID, err := h.mailer.SendContactMessage(ctx, msg)
	if err != nil {
		log.Error("contact submit: mail send failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "mail delivery failed", nil)
		return
	}

	log.Info("contact submit: sent", slog.String("message_id", messageID))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Message sent successfully! I'll get back to you soon.",
	})
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
