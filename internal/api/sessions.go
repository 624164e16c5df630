package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/fieldtrack/internal/fieldwork"
	"github.com/goodtune/fieldtrack/internal/logbook"
	"github.com/goodtune/fieldtrack/internal/storage"
)

// SessionHandler handles session-related API requests.
type SessionHandler struct {
	logbook *logbook.Service
	logger  zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(lb *logbook.Service, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		logbook: lb,
		logger:  logger.With().Str("handler", "session").Logger(),
	}
}

// createSessionRequest is the wire shape for new sessions. Times arrive as
// strings and are parsed strictly; only historical rows already in storage
// get the lenient treatment.
type createSessionRequest struct {
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationHours   float64 `json:"duration_hours"`
	ActivityType    string  `json:"activity_type"`
	SupervisionType string  `json:"supervision_type"`
	Supervisor      string  `json:"supervisor"`
	EnergyRating    int     `json:"energy_rating"`
	Notes           string  `json:"notes"`
}

func (req *createSessionRequest) toRecord(traineeID string) (fieldwork.SessionRecord, error) {
	start, err := fieldwork.ParseTimeOfDay(req.StartTime)
	if err != nil {
		return fieldwork.SessionRecord{}, err
	}
	end, err := fieldwork.ParseTimeOfDay(req.EndTime)
	if err != nil {
		return fieldwork.SessionRecord{}, err
	}
	supervision, err := fieldwork.NormalizeSupervision(req.SupervisionType)
	if err != nil {
		return fieldwork.SessionRecord{}, err
	}

	activity, err := fieldwork.ParseActivity(req.ActivityType)
	if err != nil {
		return fieldwork.SessionRecord{}, err
	}

	return fieldwork.SessionRecord{
		TraineeID:       traineeID,
		Date:            req.Date,
		StartTime:       start,
		EndTime:         end,
		DurationHours:   req.DurationHours,
		ActivityType:    activity,
		SupervisionType: supervision,
		Supervisor:      req.Supervisor,
		EnergyRating:    req.EnergyRating,
		Notes:           req.Notes,
	}, nil
}

// Create audits and saves a new session. A candidate that fails the
// save-time audit is rejected with 422 and the violation list.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traineeID := mux.Vars(r)["traineeID"]

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := req.toRecord(traineeID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.logbook.AddSession(ctx, record)
	if err != nil {
		h.logger.Error().Err(err).Str("trainee_id", traineeID).Msg("Failed to save session")
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	if !result.Saved {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// List returns the trainee's sessions, optionally filtered to one month.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traineeID := mux.Vars(r)["traineeID"]

	var records []fieldwork.SessionRecord
	var err error
	if month := r.URL.Query().Get("month"); month != "" {
		records, err = h.logbook.ListSessionsByMonth(ctx, traineeID, month)
	} else {
		records, err = h.logbook.ListSessions(ctx, traineeID)
	}
	if err != nil {
		h.logger.Error().Err(err).Str("trainee_id", traineeID).Msg("Failed to list sessions")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": records,
		"count":    len(records),
	})
}

// Get returns a single session by ID.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	traineeID := vars["traineeID"]
	id := vars["id"]

	record, err := h.logbook.GetSession(ctx, traineeID, id)
	if err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to get session")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve session")
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// Delete removes a session.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	traineeID := vars["traineeID"]
	id := vars["id"]

	if err := h.logbook.DeleteSession(ctx, traineeID, id); err != nil {
		if err == storage.ErrNotFound {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error().Err(err).Str("id", id).Msg("Failed to delete session")
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deleted": id,
	})
}
