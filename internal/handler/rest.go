package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/catalog-api/internal/model"
	"github.com/vyrodovalexey/catalog-api/internal/query"
)

// Version is the application version.
const Version = "1.0.0"

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Error messages that are not part of the item error taxonomy.
const (
	msgInvalidBody      = "invalid request body"
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
)

// ItemService is the catalog behaviour the REST handler depends on.
type ItemService interface {
	List(ctx context.Context, params query.Params) (query.Result, error)
	Get(ctx context.Context, rawID string) (*model.Item, error)
	Create(ctx context.Context, candidate map[string]json.RawMessage) (*model.Item, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// RESTHandler handles REST API requests for items.
type RESTHandler struct {
	service      ItemService
	logger       *zap.Logger
	maxBodyBytes int64
}

// NewRESTHandler creates a new RESTHandler instance. A non-positive
// maxBodyBytes selects DefaultMaxBodyBytes.
func NewRESTHandler(svc ItemService, logger *zap.Logger, maxBodyBytes int64) *RESTHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &RESTHandler{
		service:      svc,
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
	}
}

// RegisterRoutes registers the REST API routes with the router.
func (h *RESTHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/items", h.ListItems).Methods(http.MethodGet)
	router.HandleFunc("/api/items", h.CreateItem).Methods(http.MethodPost)
	router.HandleFunc("/api/items/{id}", h.GetItem).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", h.GetStats).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(h.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(h.MethodNotAllowed)
}

// HealthCheck handles GET /health requests.
func (h *RESTHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: Version,
	})
}

// ListItems handles GET /api/items requests. The body is a bare array unless
// both page and pageSize are given, in which case it is a {data, pagination}
// envelope.
func (h *RESTHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	params, err := query.ParseParams(r.URL.Query())
	if err != nil {
		h.handleError(w, err, "list items")
		return
	}

	result, err := h.service.List(r.Context(), params)
	if err != nil {
		h.handleError(w, err, "list items")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetItem handles GET /api/items/{id} requests.
func (h *RESTHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, err, "get item")
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

// CreateItem handles POST /api/items requests.
func (h *RESTHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var candidate map[string]json.RawMessage

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&candidate); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("invalid request body", zap.Error(err))
		h.writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	item, err := h.service.Create(r.Context(), candidate)
	if err != nil {
		h.handleError(w, err, "create item")
		return
	}

	h.writeJSON(w, http.StatusCreated, item)
}

// GetStats handles GET /api/stats requests.
func (h *RESTHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleError(w, err, "get stats")
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// NotFound answers requests that match no route.
func (h *RESTHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.writeError(w, http.StatusNotFound, msgNotFound)
}

// MethodNotAllowed answers requests whose path matches but method does not.
func (h *RESTHandler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	h.writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

// handleError maps service errors to HTTP responses.
func (h *RESTHandler) handleError(w http.ResponseWriter, err error, operation string) {
	var (
		validationErr *model.ValidationError
		notFoundErr   *model.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		h.logger.Debug("request rejected", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &notFoundErr):
		h.writeError(w, http.StatusNotFound, notFoundErr.Message)
	default:
		h.logger.Error("operation failed", zap.String("operation", operation), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// writeJSON writes a JSON response with the given status code.
func (h *RESTHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes an error response with the given status code and message.
func (h *RESTHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, model.ErrorResponse{Error: message})
}
