package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bobmcallan/mcpbridge/internal/common"
	"github.com/bobmcallan/mcpbridge/internal/interfaces"
	"github.com/bobmcallan/mcpbridge/internal/models"
	"github.com/google/uuid"
)

// ItemsHandler serves the items CRUD API backed by item storage.
type ItemsHandler struct {
	logger *common.Logger
	store  interfaces.ItemStorage
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(logger *common.Logger, store interfaces.ItemStorage) *ItemsHandler {
	return &ItemsHandler{logger: logger, store: store}
}

// itemFields is the request body for create and update.
type itemFields struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// List handles GET /api/items with optional tag and limit query parameters.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	tag := r.URL.Query().Get("tag")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	items, err := h.store.List(r.Context(), tag, limit)
	if err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to list items")
		WriteError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []models.Item{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"count": len(items),
	})
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields itemFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if fields.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now().UTC()
	item := &models.Item{
		ID:        uuid.New().String(),
		Name:      fields.Name,
		Tags:      fields.Tags,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.store.Put(r.Context(), item); err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to create item")
		WriteError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	WriteJSON(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "item not found: "+id)
		return
	}
	WriteJSON(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := h.store.Get(r.Context(), id)
	if err != nil {
		WriteError(w, http.StatusNotFound, "item not found: "+id)
		return
	}

	var fields itemFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if fields.Name != "" {
		item.Name = fields.Name
	}
	if fields.Tags != nil {
		item.Tags = fields.Tags
	}
	item.UpdatedAt = time.Now().UTC()

	if err := h.store.Put(r.Context(), item); err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to update item")
		WriteError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	WriteJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if _, err := h.store.Get(r.Context(), id); err != nil {
		WriteError(w, http.StatusNotFound, "item not found: "+id)
		return
	}

	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error().Str("error", err.Error()).Msg("failed to delete item")
		WriteError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"status": "deleted",
		"id":     id,
	})
}
