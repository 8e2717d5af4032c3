package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/wanderlog/journal-gate/pkg/journalgate"
)

// maxRejectionReasonLen caps the free-text reason stored on rejection. The
// engine stores the reason verbatim; the cap lives here at the service edge.
const maxRejectionReasonLen = 2000

// Handler exposes the engine over HTTP. All authorization decisions happen in
// the service; handlers only decode, delegate, and map errors.
type Handler struct {
	service journalgate.Service
}

// NewHandler creates a new HTTP handler around the service.
func NewHandler(service journalgate.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the engine's routes. The principal middleware must already
// have run.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/principals", h.RegisterPrincipal)
	r.Patch("/principals/{id}/status", h.SetAccountStatus)
	r.Patch("/principals/{id}/role", h.SetRole)

	r.Get("/public/journals", h.ListPublicJournals)

	r.Post("/journals", h.CreateJournal)
	r.Get("/journals", h.ListOwnedJournals)
	r.Post("/journals/{id}/places", h.CreatePlace)
	r.Get("/journals/{id}/places", h.ListJournalPlaces)

	r.Get("/items/{id}", h.GetItem)
	r.Patch("/items/{id}", h.UpdateItem)
	r.Delete("/items/{id}", h.DeleteItem)
	r.Get("/items/{id}/listed", h.IsListed)
	r.Post("/items/{id}/approve", h.Approve)
	r.Post("/items/{id}/reject", h.Reject)
	r.Post("/items/{id}/resubmit", h.Resubmit)
	r.Patch("/items/{id}/visibility", h.SetVisibility)
	r.Get("/items/{id}/events", h.ListModerationLog)

	r.Get("/moderation/queue", h.ListPendingItems)

	r.Post("/places/{id}/photo-upload-url", h.PhotoUploadURL)
	r.Get("/places/{id}/photo-download-url", h.PhotoDownloadURL)
	r.Post("/places/{id}/photos", h.UploadPhoto)
	r.Get("/places/{id}/photos", h.DownloadPhoto)
	r.Delete("/places/{id}/photos", h.DeletePhoto)

	return r
}

// RegisterPrincipalRequest is the request body for creating a principal
type RegisterPrincipalRequest struct {
	ID string `json:"id,omitempty"`
}

func (h *Handler) RegisterPrincipal(w http.ResponseWriter, r *http.Request) {
	var req RegisterPrincipalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var id uuid.UUID
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, "Invalid principal ID", http.StatusBadRequest)
			return
		}
		id = parsed
	}

	p, err := h.service.RegisterPrincipal(r.Context(), journalgate.RegisterPrincipalRequest{ID: id})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, p)
}

// SetAccountStatusRequest is the request body for changing an account status
type SetAccountStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetAccountStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SetAccountStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.SetAccountStatus(r.Context(), PrincipalFromContext(r.Context()), id,
		journalgate.AccountStatus(req.Status))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

// SetRoleRequest is the request body for changing a principal role
type SetRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.service.SetRole(r.Context(), PrincipalFromContext(r.Context()), id,
		journalgate.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, p)
}

// CreateJournalRequest is the request body for submitting a journal
type CreateJournalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var req CreateJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateJournal(r.Context(), PrincipalFromContext(r.Context()),
		journalgate.CreateJournalRequest{Title: req.Title, Description: req.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

func (h *Handler) ListOwnedJournals(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListOwnedItems(r.Context(), PrincipalFromContext(r.Context()), journalgate.KindJournal)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// CreatePlaceRequest is the request body for submitting a place
type CreatePlaceRequest struct {
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Visit       *journalgate.VisitWindow `json:"visit,omitempty"`
}

func (h *Handler) CreatePlace(w http.ResponseWriter, r *http.Request) {
	journalID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req CreatePlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.CreatePlace(r.Context(), PrincipalFromContext(r.Context()),
		journalgate.CreatePlaceRequest{
			JournalID:   journalID,
			Title:       req.Title,
			Description: req.Description,
			Visit:       req.Visit,
		})
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, item)
}

func (h *Handler) ListJournalPlaces(w http.ResponseWriter, r *http.Request) {
	journalID, ok := h.pathID(w, r)
	if !ok {
		return
	}

	places, err := h.service.ListJournalPlaces(r.Context(), PrincipalFromContext(r.Context()), journalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, places)
}

func (h *Handler) ListPublicJournals(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	items, err := h.service.ListPublicJournals(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

// UpdateItemRequest is the request body for an owner edit
type UpdateItemRequest struct {
	Title       *string                  `json:"title,omitempty"`
	Description *string                  `json:"description,omitempty"`
	Visit       *journalgate.VisitWindow `json:"visit,omitempty"`
}

func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), PrincipalFromContext(r.Context()),
		journalgate.UpdateItemRequest{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			Visit:       req.Visit,
		})
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), PrincipalFromContext(r.Context()), id); err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

func (h *Handler) IsListed(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	listed, err := h.service.IsPubliclyListed(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]bool{"listed": listed})
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	item, err := h.service.Approve(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

// RejectRequest is the request body for rejecting an item
type RejectRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Reason) > maxRejectionReasonLen {
		http.Error(w, "Rejection reason too long", http.StatusBadRequest)
		return
	}

	item, err := h.service.Reject(r.Context(), PrincipalFromContext(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

func (h *Handler) Resubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	item, err := h.service.Resubmit(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

// SetVisibilityRequest is the request body for a visibility toggle
type SetVisibilityRequest struct {
	IsPublic bool `json:"is_public"`
}

func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req SetVisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.SetVisibility(r.Context(), PrincipalFromContext(r.Context()), id, req.IsPublic)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, item)
}

func (h *Handler) ListModerationLog(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	events, err := h.service.ListModerationLog(r.Context(), PrincipalFromContext(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, events)
}

func (h *Handler) ListPendingItems(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	items, err := h.service.ListPendingItems(r.Context(), PrincipalFromContext(r.Context()), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, items)
}

// PhotoURLRequest is the request body for requesting a photo upload URL
type PhotoURLRequest struct {
	Filename string `json:"filename"`
}

func (h *Handler) PhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req PhotoURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Filename == "" {
		http.Error(w, "Filename is required", http.StatusBadRequest)
		return
	}

	url, err := h.service.PlacePhotoUploadURL(r.Context(), PrincipalFromContext(r.Context()), id, req.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"upload_url": url})
}

func (h *Handler) PhotoDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Filename is required", http.StatusBadRequest)
		return
	}

	url, err := h.service.PlacePhotoDownloadURL(r.Context(), PrincipalFromContext(r.Context()), id, filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, r, map[string]string{"download_url": url})
}

// UploadPhoto stores the raw request body as a place photo. The filename
// comes from the query so the body stays an opaque byte stream.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Filename is required", http.StatusBadRequest)
		return
	}

	if err := h.service.UploadPlacePhoto(r.Context(), PrincipalFromContext(r.Context()), id, filename, r.Body); err != nil {
		writeError(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, map[string]string{"filename": filename})
}

func (h *Handler) DownloadPhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Filename is required", http.StatusBadRequest)
		return
	}

	photo, err := h.service.DownloadPlacePhoto(r.Context(), PrincipalFromContext(r.Context()), id, filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer photo.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := io.Copy(w, photo); err != nil {
		slog.Error("Failed to stream photo", "place_id", id, "filename", filename, "error", err)
	}
}

func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		http.Error(w, "Filename is required", http.StatusBadRequest)
		return
	}

	if err := h.service.DeletePlacePhoto(r.Context(), PrincipalFromContext(r.Context()), id, filename); err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// pathID parses the {id} route parameter, writing a 400 on failure.
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		slog.Error("Invalid item ID", "id", raw, "error", err)
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func pagination(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
