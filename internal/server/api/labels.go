// Package api provides HTTP API handlers for the Mudra recording station.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/label"
	"github.com/ayusman/mudra/internal/store"
)

// maxImportSize caps a label file upload.
const maxImportSize = 1 << 20

// LabelHandler handles HTTP requests for label resources. Every change is
// written to the store and mirrored into the in-memory label lookup.
type LabelHandler struct {
	store    *store.Store
	mapper   *label.Mapper
	onChange func()
}

// NewLabelHandler creates a new LabelHandler. onChange, when non-nil, runs
// after every successful mutation.
func NewLabelHandler(s *store.Store, m *label.Mapper, onChange func()) *LabelHandler {
	return &LabelHandler{store: s, mapper: m, onChange: onChange}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *LabelHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/labels, /api/labels/import or /api/labels/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/labels")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if path == "import" {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.importFile(w, r)
		return
	}

	id, err := strconv.Atoi(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid label id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createLabelRequest struct {
	ID   *int   `json:"id"`
	Name string `json:"name"`
}

type updateLabelRequest struct {
	Name string `json:"name"`
}

type labelResponse struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Recordings int    `json:"recordings"`
	CreatedAt  string `json:"created_at"`
}

type listLabelsResponse struct {
	Labels []labelResponse `json:"labels"`
}

type importLabelsResponse struct {
	Imported int `json:"imported"`
}

func toLabelResponse(l *store.Label, recordings int) labelResponse {
	return labelResponse{
		ID:         l.ID,
		Name:       l.Name,
		Recordings: recordings,
		CreatedAt:  l.CreatedAt.Format(timeLayout),
	}
}

func (h *LabelHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

// list handles GET /api/labels and returns every label with its recording count.
func (h *LabelHandler) list(w http.ResponseWriter, r *http.Request) {
	labels, err := h.store.Labels().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list labels")
		return
	}

	counts, err := h.store.Recordings().CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count recordings")
		return
	}

	response := listLabelsResponse{
		Labels: make([]labelResponse, 0, len(labels)),
	}
	for _, l := range labels {
		response.Labels = append(response.Labels, toLabelResponse(l, counts[l.ID]))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/labels/{id}.
func (h *LabelHandler) get(w http.ResponseWriter, r *http.Request, id int) {
	l, err := h.store.Labels().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Label not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get label")
		return
	}

	recs, err := h.store.Recordings().ListByLabel(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count recordings")
		return
	}

	writeJSON(w, http.StatusOK, toLabelResponse(l, len(recs)))
}

// create handles POST /api/labels and binds a new label id.
func (h *LabelHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.ID == nil {
		writeError(w, http.StatusBadRequest, "ID is required")
		return
	}
	if *req.ID < 0 {
		writeError(w, http.StatusBadRequest, "ID must not be negative")
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if export.CheckName(name) != nil {
		writeError(w, http.StatusBadRequest, "Name must not contain path separators or control characters")
		return
	}

	if _, err := h.store.Labels().GetByID(*req.ID); err == nil {
		writeError(w, http.StatusConflict, "Label id already exists")
		return
	}
	if _, err := h.store.Labels().GetByName(name); err == nil {
		writeError(w, http.StatusConflict, "Label name already exists")
		return
	}

	l := &store.Label{ID: *req.ID, Name: name}
	if err := h.store.Labels().Create(l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create label")
		return
	}
	h.mapper.Add(l.ID, l.Name)
	h.changed()

	writeJSON(w, http.StatusCreated, toLabelResponse(l, 0))
}

// update handles PUT /api/labels/{id} and renames a label.
func (h *LabelHandler) update(w http.ResponseWriter, r *http.Request, id int) {
	l, err := h.store.Labels().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Label not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get label")
		return
	}

	var req updateLabelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if export.CheckName(name) != nil {
		writeError(w, http.StatusBadRequest, "Name must not contain path separators or control characters")
		return
	}
	if other, err := h.store.Labels().GetByName(name); err == nil && other.ID != id {
		writeError(w, http.StatusConflict, "Label name already exists")
		return
	}

	l.Name = name
	if err := h.store.Labels().Update(l); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update label")
		return
	}
	h.mapper.Add(l.ID, l.Name)
	h.changed()

	writeJSON(w, http.StatusOK, toLabelResponse(l, 0))
}

// delete handles DELETE /api/labels/{id}. Recordings made under the label stay catalogued.
func (h *LabelHandler) delete(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.store.Labels().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Label not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete label")
		return
	}
	h.mapper.Remove(id)
	h.changed()

	w.WriteHeader(http.StatusNoContent)
}

// importFile handles POST /api/labels/import. The body is a label file with
// one "<id> <name>" binding per line; existing ids are renamed.
func (h *LabelHandler) importFile(w http.ResponseWriter, r *http.Request) {
	entries, err := label.Parse(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, e := range entries {
		if err := h.store.Labels().Upsert(&store.Label{ID: e.ID, Name: e.Name}); err != nil {
			writeError(w, http.StatusConflict, "Failed to import label "+strconv.Itoa(e.ID))
			return
		}
		h.mapper.Add(e.ID, e.Name)
	}
	h.changed()

	writeJSON(w, http.StatusOK, importLabelsResponse{Imported: len(entries)})
}
