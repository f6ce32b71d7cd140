package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/publish"
	"github.com/tendant/simple-publish/pkg/publish/config"
)

const (
	HeaderPublishKey = "X-Publish-Key"
	HeaderPublishID  = "X-Publish-ID"

	allowMethods = "POST, OPTIONS"
	allowHeaders = "Content-Type, X-Publish-Key"
)

// Publisher is the part of publish.Publisher the handler needs
type Publisher interface {
	Publish(ctx context.Context, req publish.PublishRequest) (*publish.Record, error)
	GetRecord(ctx context.Context, id uuid.UUID) (*publish.Record, error)
}

// ErrorResponse is the body of every failed response
type ErrorResponse struct {
	Error string `json:"error"`
}

// PublishResponse is the body of a successful publish
type PublishResponse struct {
	OK bool `json:"ok"`
}

// PublishHandler serves the publish endpoint and the publish history lookup.
// Both go through the same origin and key checks.
type PublishHandler struct {
	publisher Publisher
	cfg       config.ServerConfig
	logger    *slog.Logger
}

func NewPublishHandler(publisher Publisher, cfg config.ServerConfig, logger *slog.Logger) *PublishHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishHandler{
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Routes returns the router for publish endpoints. Routes accept every method
// so preflights and wrong methods get the publish-specific answers.
func (h *PublishHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.HandleFunc("/publish", h.Publish)
	r.HandleFunc("/publishes/{id}", h.GetPublish)
	return r
}

// Publish handles /publish
func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	if !h.gate(w, r, http.MethodPost) {
		return
	}

	if h.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.Warn("failed to read publish body", "request_id", RequestIDFromContext(r.Context()), "error", err)
		h.writeError(w, r, http.StatusBadRequest, "Invalid posts")
		return
	}

	req, err := publish.DecodeRequest(body)
	if err != nil {
		h.logger.Warn("invalid publish payload", "request_id", RequestIDFromContext(r.Context()), "error", err)
		h.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.publisher.Publish(r.Context(), req)
	if record != nil {
		w.Header().Set(HeaderPublishID, record.ID.String())
	}
	if err != nil {
		h.logger.Error("publish failed",
			"request_id", RequestIDFromContext(r.Context()),
			"branch", req.Branch,
			"error", err)
		h.writeError(w, r, statusFor(err), err.Error())
		return
	}

	render.JSON(w, r, PublishResponse{OK: true})
}

// GetPublish returns the history record of a previous publish
func (h *PublishHandler) GetPublish(w http.ResponseWriter, r *http.Request) {
	if !h.gate(w, r, http.MethodGet) {
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "Invalid publish ID")
		return
	}

	record, err := h.publisher.GetRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, publish.ErrRecordNotFound) {
			h.writeError(w, r, http.StatusNotFound, "Publish not found")
			return
		}
		h.logger.Error("failed to get publish record", "publish_id", id, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	render.JSON(w, r, record)
}

// gate runs the preflight, origin, method and key checks in that order. It
// returns false when a response has already been written.
func (h *PublishHandler) gate(w http.ResponseWriter, r *http.Request, method string) bool {
	origin := r.Header.Get("Origin")
	allowed := h.cfg.OriginAllowed(origin)

	if r.Method == http.MethodOptions {
		if allowed {
			h.setCORS(w, origin)
			w.Header().Set("Access-Control-Allow-Methods", allowMethods)
			w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		}
		w.WriteHeader(http.StatusNoContent)
		return false
	}

	if !allowed {
		h.logger.Warn("origin rejected",
			"request_id", RequestIDFromContext(r.Context()),
			"origin", origin,
			"path", r.URL.Path)
		h.writeError(w, r, http.StatusForbidden, "Origin not allowed")
		return false
	}

	// Everything past here is readable by the caller.
	h.setCORS(w, origin)

	if r.Method != method {
		h.writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
		return false
	}

	if !h.keyMatches(r.Header.Get(HeaderPublishKey)) {
		h.writeError(w, r, http.StatusUnauthorized, "Unauthorized")
		return false
	}

	return true
}

func (h *PublishHandler) keyMatches(key string) bool {
	if h.cfg.PublishKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.cfg.PublishKey)) == 1
}

func (h *PublishHandler) setCORS(w http.ResponseWriter, origin string) {
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Add("Vary", "Origin")
}

func (h *PublishHandler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

// statusFor maps publish errors onto response statuses. Anything raised while
// writing is a downstream failure.
func statusFor(err error) int {
	var validationErr *publish.ValidationError
	var authErr *publish.AuthError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &authErr):
		return authErr.Status
	default:
		return http.StatusInternalServerError
	}
}
