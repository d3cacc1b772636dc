package shoppinglist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/georgemunganga/slist-backend/internal/validation"
	"github.com/go-chi/chi/v5"
)

// SaveResult is the body returned by POST /api/data.
type SaveResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// maxDocumentSize bounds request bodies for POST /api/data.
const maxDocumentSize = 10 << 20

// Handler exposes the shopping list HTTP endpoints.
type Handler struct {
	service  Service
	defaults Defaults
	logger   *slog.Logger
	validate *validation.Validator
}

func NewHandler(service Service, defaults Defaults, logger *slog.Logger) *Handler {
	return &Handler{service: service, defaults: defaults, logger: logger, validate: validation.New()}
}

type addStoreRequest struct {
	Name  string `json:"name" validate:"required,max=50"`
	Color string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

type addItemRequest struct {
	Text string `json:"text" validate:"required,max=200"`
}

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api", func(r chi.Router) {
		// Whole-document persistence
		r.Get("/data", h.getData)
		r.Post("/data", h.saveData)

		r.Get("/lists", h.getLists)
		r.Get("/status", h.getStatus)

		r.Post("/stores", h.addStore)
		r.Delete("/stores/{store_id}", h.deleteStore)
		r.Post("/stores/{store_id}/items", h.addItem)
		r.Patch("/stores/{store_id}/items/{item_id}/toggle", h.toggleItem)
		r.Delete("/stores/{store_id}/items/{item_id}", h.deleteItem)

		r.Post("/archive", h.archive)
	})
}

func (h *Handler) getData(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Load(r.Context())
	if err != nil {
		respond(w, http.StatusOK, h.defaults.Document())
		return
	}
	respond(w, http.StatusOK, doc)
}

func (h *Handler) saveData(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		respond(w, http.StatusBadRequest, SaveResult{Message: "Failed to save data"})
		return
	}
	doc, err := DecodeDocument(data, h.defaults)
	if err != nil {
		h.logger.Warn("rejected malformed document", "error", err)
		respond(w, http.StatusBadRequest, SaveResult{Message: "Failed to save data"})
		return
	}

	if _, err := h.service.Replace(r.Context(), doc); err != nil {
		respond(w, http.StatusInternalServerError, SaveResult{Message: "Failed to save data"})
		return
	}
	respond(w, http.StatusOK, SaveResult{Success: true, Message: "Data saved successfully"})
}

func (h *Handler) getLists(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.service.Snapshot())
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]SaveStatus{"saveStatus": h.service.Status()})
}

func (h *Handler) addStore(w http.ResponseWriter, r *http.Request) {
	var req addStoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	store, err := h.service.AddStore(r.Context(), req.Name, req.Color)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondMutation(w, http.StatusCreated, store)
}

func (h *Handler) deleteStore(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteStore(r.Context(), chi.URLParam(r, "store_id")); err != nil {
		h.fail(w, err)
		return
	}
	h.respondMutation(w, http.StatusNoContent, nil)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, err := h.service.AddItem(r.Context(), chi.URLParam(r, "store_id"), req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondMutation(w, http.StatusCreated, item)
}

func (h *Handler) toggleItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}
	item, err := h.service.ToggleItem(r.Context(), chi.URLParam(r, "store_id"), itemID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respondMutation(w, http.StatusOK, item)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "item_id"), 10, 64)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid item_id"})
		return
	}
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "store_id"), itemID); err != nil {
		h.fail(w, err)
		return
	}
	h.respondMutation(w, http.StatusNoContent, nil)
}

func (h *Handler) archive(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.Archive(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, a.Filename))
	w.Header().Set("X-Save-Status", string(h.service.Status()))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, a.Content)
}

// decode reads and validates a JSON request body, answering 400 itself when
// either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	if errs := h.validate.Struct(req); errs != nil {
		respond(w, http.StatusBadRequest, map[string]interface{}{"error": "Validation failed", "details": errs})
		return false
	}
	return true
}

// respondMutation reports the outcome of the save that followed the change.
func (h *Handler) respondMutation(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("X-Save-Status", string(h.service.Status()))
	if body == nil {
		w.WriteHeader(status)
		return
	}
	respond(w, status, body)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrItemNotFound):
		respond(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrBlankItem), errors.Is(err, ErrItemTooLong),
		errors.Is(err, ErrBlankStoreName), errors.Is(err, ErrStoreNameTooLong),
		errors.Is(err, ErrInvalidColor):
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("shopping list request failed", "error", err)
		respond(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
