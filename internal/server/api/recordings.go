package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/mudra/internal/store"
)

// RecordingHandler serves the catalog of persisted exports.
type RecordingHandler struct {
	store *store.Store
}

// NewRecordingHandler creates a new RecordingHandler with the given store.
func NewRecordingHandler(s *store.Store) *RecordingHandler {
	return &RecordingHandler{store: s}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/recordings, /api/recordings/stats or /api/recordings/{id}
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recordings")
	path = strings.TrimPrefix(path, "/")

	switch {
	case path == "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
	case path == "stats":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stats(w, r)
	default:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, path)
		case http.MethodDelete:
			h.delete(w, r, path)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// Response types

type recordingResponse struct {
	ID         string `json:"id"`
	LabelID    int    `json:"label_id"`
	Operator   string `json:"operator"`
	Mode       string `json:"mode"`
	Path       string `json:"path"`
	Frames     int    `json:"frames"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

type listRecordingsResponse struct {
	Recordings []recordingResponse `json:"recordings"`
}

type statsResponse struct {
	Total   int            `json:"total"`
	ByLabel map[string]int `json:"by_label"`
}

func toRecordingResponse(rec *store.Recording) recordingResponse {
	return recordingResponse{
		ID:         rec.ID,
		LabelID:    rec.LabelID,
		Operator:   rec.Operator,
		Mode:       rec.Mode,
		Path:       rec.Path,
		Frames:     rec.Frames,
		DurationMS: rec.DurationMS,
		CreatedAt:  rec.CreatedAt.Format(timeLayout),
	}
}

// list handles GET /api/recordings, optionally filtered with ?label=<id>.
func (h *RecordingHandler) list(w http.ResponseWriter, r *http.Request) {
	var (
		recs []*store.Recording
		err  error
	)

	if v := r.URL.Query().Get("label"); v != "" {
		id, convErr := strconv.Atoi(v)
		if convErr != nil {
			writeError(w, http.StatusBadRequest, "Invalid label id")
			return
		}
		recs, err = h.store.Recordings().ListByLabel(id)
	} else {
		recs, err = h.store.Recordings().List()
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list recordings")
		return
	}

	response := listRecordingsResponse{
		Recordings: make([]recordingResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		response.Recordings = append(response.Recordings, toRecordingResponse(rec))
	}

	writeJSON(w, http.StatusOK, response)
}

// stats handles GET /api/recordings/stats.
func (h *RecordingHandler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Recordings().CountByLabel()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count recordings")
		return
	}

	response := statsResponse{ByLabel: make(map[string]int, len(counts))}
	for id, n := range counts {
		response.ByLabel[strconv.Itoa(id)] = n
		response.Total += n
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/recordings/{id}.
func (h *RecordingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Recordings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get recording")
		return
	}

	writeJSON(w, http.StatusOK, toRecordingResponse(rec))
}

// delete handles DELETE /api/recordings/{id}. Only the catalog entry is
// removed; the exported files stay on disk.
func (h *RecordingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Recordings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recording not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete recording")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
