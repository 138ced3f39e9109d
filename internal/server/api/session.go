package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/export"
	"github.com/ayusman/mudra/internal/recorder"
)

// Session is the recording control surface of the running pipeline.
type Session interface {
	Status() app.Status
	SetMode(m recorder.Mode)
	SetLabel(id int)
	SetOperator(name string)
}

// SessionHandler reads and changes the mode, label and operator.
type SessionHandler struct {
	session Session
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(s Session) *SessionHandler {
	return &SessionHandler{session: s}
}

// ServeHTTP handles GET and PUT on /api/session.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.snapshot())
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Absent fields are left unchanged.
type updateSessionRequest struct {
	Mode     *string `json:"mode"`
	LabelID  *int    `json:"label_id"`
	Operator *string `json:"operator"`
}

type sessionResponse struct {
	Mode      recorder.Mode `json:"mode"`
	LabelID   int           `json:"label_id"`
	LabelName string        `json:"label_name"`
	Operator  string        `json:"operator"`
	Stacking  bool          `json:"stacking"`
	Recorded  int           `json:"recorded"`
}

func (h *SessionHandler) snapshot() sessionResponse {
	st := h.session.Status()
	return sessionResponse{
		Mode:      st.Mode,
		LabelID:   st.LabelID,
		LabelName: st.LabelName,
		Operator:  st.Operator,
		Stacking:  st.Stacking,
		Recorded:  st.Recorded,
	}
}

func (h *SessionHandler) update(w http.ResponseWriter, r *http.Request) {
	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate everything before applying anything.
	var mode recorder.Mode
	if req.Mode != nil {
		m, err := recorder.ParseMode(*req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid mode")
			return
		}
		mode = m
	}
	if req.LabelID != nil && *req.LabelID < 0 {
		writeError(w, http.StatusBadRequest, "Label id must not be negative")
		return
	}
	var operator string
	if req.Operator != nil {
		operator = strings.TrimSpace(*req.Operator)
		if !validOperator(operator) {
			writeError(w, http.StatusBadRequest, "Invalid operator")
			return
		}
	}

	if req.Operator != nil {
		h.session.SetOperator(operator)
	}
	if req.LabelID != nil {
		h.session.SetLabel(*req.LabelID)
	}
	if req.Mode != nil {
		h.session.SetMode(mode)
	}

	writeJSON(w, http.StatusOK, h.snapshot())
}

// validOperator rejects names that cannot be used as a path element.
func validOperator(name string) bool {
	return export.CheckName(name) == nil
}
