package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/andymarkow/tradesim/internal/auth"
	"github.com/andymarkow/tradesim/internal/errmsg"
	"github.com/andymarkow/tradesim/internal/storage"
	"github.com/andymarkow/tradesim/internal/trading"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxRequestBodySize limits JSON request payloads.
const maxRequestBodySize = 1 << 20

type Handlers struct {
	storage      storage.Storage
	log          *slog.Logger
	auth         *auth.JWTAuth
	trading      *trading.Service
	cookieSecure bool
}

// NewHandlers returns a new Handlers instance.
func NewHandlers(store storage.Storage, opts ...Option) *Handlers {
	handlers := &Handlers{
		storage: store,
		log:     slog.Default(),
		auth:    auth.NewJWTAuth([]byte("")),
	}

	// Apply options
	for _, opt := range opts {
		opt(handlers)
	}

	if handlers.trading == nil {
		handlers.trading = trading.NewService(store, trading.WithLogger(handlers.log))
	}

	return handlers
}

// Option is a functional option for Handlers.
type Option func(h *Handlers)

// WithLogger is a option for Handlers that sets logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handlers) {
		h.log = logger
	}
}

func WithAuth(auth *auth.JWTAuth) Option {
	return func(h *Handlers) {
		h.auth = auth
	}
}

func WithTrading(svc *trading.Service) Option {
	return func(h *Handlers) {
		h.trading = svc
	}
}

// WithCookieSecure marks the session cookie as HTTPS only.
func WithCookieSecure(secure bool) Option {
	return func(h *Handlers) {
		h.cookieSecure = secure
	}
}

type JSONResponse struct {
	Message any `json:"message,omitempty"`
	Error   any `json:"error,omitempty"`
}

func handleJSONResponse(w http.ResponseWriter, status int, resp any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func handleError(w http.ResponseWriter, err errmsg.HTTPError) {
	resp := &JSONResponse{
		Error: err.Error(),
	}

	w.Header().Set("content-type", "application/json")
	w.WriteHeader(err.Code)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// decodeJSON reads the request body into v.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(v); err != nil {
		h.log.Debug("json.NewDecoder().Decode()", slog.Any("error", err))

		if errors.Is(err, io.EOF) {
			handleError(w, errmsg.ErrRequestPayloadEmpty)

			return false
		}

		handleError(w, errmsg.ErrRequestPayloadInvalid)

		return false
	}

	return true
}

// parseLimit reads the limit query parameter. Values above maxLimit are capped.
func parseLimit(r *http.Request, defaultLimit, maxLimit int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, false
	}

	return min(limit, maxLimit), true
}

// resourceID returns the id URL parameter if it is a well-formed UUID.
func resourceID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")

	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}

	return id, true
}

func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.storage.Ping(r.Context()); err != nil {
		h.log.Error("storage.Ping", slog.Any("error", err))
		handleError(w, errmsg.ErrInternal)

		return
	}

	handleJSONResponse(w, http.StatusOK, &JSONResponse{Message: "ok"})
}
