package blog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dlrodev92/my-portfolio-api/internal/httpx"
	"github.com/dlrodev92/my-portfolio-api/internal/middleware"
	"github.com/dlrodev92/my-portfolio-api/internal/transport"
	"github.com/dlrodev92/my-portfolio-api/internal/validation"
	"github.com/go-chi/chi/v5"
)

const (
	maxContentImages = 20
	multipartMemory  = 32 << 20
	createTimeout    = 30 * time.Second
	readTimeout      = 5 * time.Second
	writeTimeout     = 8 * time.Second
)

type Handler struct {
	service        *Service
	val            *validation.Validator
	log            *slog.Logger
	maxUploadBytes int64
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger, maxUploadBytes int64) *Handler {
	return &Handler{
		service:        service,
		val:            val,
		log:            log,
		maxUploadBytes: maxUploadBytes,
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 10, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := ListFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Tag:      strings.TrimSpace(r.URL.Query().Get("tag")),
		Series:   strings.TrimSpace(r.URL.Query().Get("series")),
	}
	// published defaults to true; "false" drops the predicate entirely.
	if r.URL.Query().Get("published") != "false" {
		published := true
		filter.Published = &published
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	posts, err := h.service.List(ctx, filter, limit, offset)
	if err != nil {
		log.Error("blog list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("blog list: ok", slog.Int("count", len(posts)))
	transport.WriteData(w, http.StatusOK, posts)
}

func (h *Handler) Cards(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	limit, offset, err := httpx.ParseLimitOffset(r.URL.Query(), 10, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	filter := CardFilter{
		Category: strings.TrimSpace(r.URL.Query().Get("category")),
		Tag:      strings.TrimSpace(r.URL.Query().Get("tag")),
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	cards, err := h.service.ListCards(ctx, filter, limit, offset)
	if err != nil {
		log.Error("blog cards: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("blog cards: ok", slog.Int("count", len(cards)))
	transport.WriteData(w, http.StatusOK, cards)
}

func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing slug", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	post, err := h.service.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("blog get: not found", slog.String("slug", slug))
			transport.WriteError(w, http.StatusNotFound, "blog post not found", map[string]string{"slug": slug})
			return
		}
		log.Error("blog get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("blog get: ok", slog.String("slug", slug))
	transport.WriteData(w, http.StatusOK, post)
}

func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	post, err := h.service.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("blog get: not found", slog.Int64("id", id))
			transport.WriteError(w, http.StatusNotFound, "blog post not found", map[string]string{"id": strconv.FormatInt(id, 10)})
			return
		}
		log.Error("blog get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteData(w, http.StatusOK, post)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid multipart form", nil)
		return
	}

	req, err := h.createRequestFromForm(r)
	if err != nil {
		h.writeFormError(w, log, err)
		return
	}

	if err := h.val.Struct(req); err != nil {
		log.Warn("blog create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), createTimeout)
	defer cancel()

	post, err := h.service.Create(ctx, *req)
	if err != nil {
		switch {
		case errors.Is(err, ErrImageCountMismatch):
			log.Warn("blog create: image count mismatch")
			transport.WriteError(w, http.StatusBadRequest, "content image count must match IMAGE blocks", nil)
		case errors.Is(err, ErrSlugExists):
			log.Warn("blog create: slug exists")
			transport.WriteError(w, http.StatusConflict, "slug already exists", nil)
		case errors.Is(err, ErrUpload):
			log.Error("blog create: upload failed", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "upload failed", nil)
		default:
			log.Error("blog create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("blog create: ok", slog.Int64("post_id", post.ID), slog.String("slug", post.Slug))
	transport.WriteData(w, http.StatusCreated, post)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid id", nil)
		return
	}

	var req UpdateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), writeTimeout)
	defer cancel()

	post, err := h.service.Update(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			log.Warn("blog update: not found", slog.Int64("id", id))
			transport.WriteError(w, http.StatusNotFound, "blog post not found", map[string]string{"id": strconv.FormatInt(id, 10)})
		case errors.Is(err, ErrSlugExists):
			transport.WriteError(w, http.StatusConflict, "slug already exists", nil)
		default:
			log.Error("blog update: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("blog update: ok", slog.Int64("post_id", id))
	transport.WriteData(w, http.StatusOK, post)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, "invalid id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
	defer cancel()

	if err := h.service.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("blog delete: not found", slog.Int64("id", id))
			transport.WriteError(w, http.StatusNotFound, "blog post not found", map[string]string{"id": strconv.FormatInt(id, 10)})
			return
		}
		log.Error("blog delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("blog delete: ok", slog.Int64("post_id", id))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Blog post deleted successfully",
	})
}

func (h *Handler) createRequestFromForm(r *http.Request) (*CreateRequest, error) {
	req := &CreateRequest{
		Title:            strings.TrimSpace(r.FormValue("title")),
		Subtitle:         r.FormValue("subtitle"),
		Excerpt:          r.FormValue("excerpt"),
		MetaDescription:  r.FormValue("metaDescription"),
		HeroImageAlt:     r.FormValue("heroImageAlt"),
		HeroImageCaption: r.FormValue("heroImageCaption"),
		ReadTime:         r.FormValue("readTime"),
		PublishedAt:      strings.TrimSpace(r.FormValue("publishedAt")),
	}

	if err := decodeFormJSON(r, "contentBlocks", &req.Blocks); err != nil {
		return nil, err
	}
	if err := decodeFormJSON(r, "author", &req.Author); err != nil {
		return nil, err
	}
	if err := decodeFormJSON(r, "category", &req.Category); err != nil {
		return nil, err
	}
	if err := decodeFormJSON(r, "series", &req.Series); err != nil {
		return nil, err
	}
	if err := decodeFormJSON(r, "tags", &req.Tags); err != nil {
		return nil, err
	}

	var err error
	if req.HeroImage, err = httpx.FormFile(r, "heroImage", h.maxUploadBytes); err != nil {
		return nil, err
	}
	if req.SocialImage, err = httpx.FormFile(r, "socialImage", h.maxUploadBytes); err != nil {
		return nil, err
	}
	if req.ContentImages, err = httpx.FormFiles(r, "contentImages", maxContentImages, h.maxUploadBytes); err != nil {
		return nil, err
	}

	return req, nil
}

func (h *Handler) writeFormError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, httpx.ErrFileTooLarge):
		log.Warn("blog create: file too large")
		transport.WriteError(w, http.StatusRequestEntityTooLarge, "file too large", nil)
	case errors.Is(err, httpx.ErrBadFileType):
		log.Warn("blog create: file type not allowed")
		transport.WriteError(w, http.StatusUnsupportedMediaType, "file type not allowed", nil)
	case errors.Is(err, httpx.ErrTooManyFiles):
		log.Warn("blog create: too many files")
		transport.WriteError(w, http.StatusBadRequest, "too many files", nil)
	default:
		log.Warn("blog create: invalid form payload", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusBadRequest, "invalid form payload", nil)
	}
}

func decodeFormJSON(r *http.Request, field string, v interface{}) error {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
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
