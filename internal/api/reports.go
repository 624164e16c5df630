package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/fieldtrack/internal/logbook"
	"github.com/goodtune/fieldtrack/internal/rules"
)

// ReportHandler handles monthly compliance report requests.
type ReportHandler struct {
	logbook     *logbook.Service
	defaultVer  string
	defaultMode rules.Mode
	logger      zerolog.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(lb *logbook.Service, defaultVer string, defaultMode rules.Mode, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		logbook:     lb,
		defaultVer:  defaultVer,
		defaultMode: defaultMode,
		logger:      logger.With().Str("handler", "report").Logger(),
	}
}

// Monthly computes the compliance report for one trainee-month. The
// ruleset version and supervision mode default from configuration and can
// be overridden with ?version= and ?mode= query parameters.
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	traineeID := vars["traineeID"]
	month := vars["month"]

	version := r.URL.Query().Get("version")
	if version == "" {
		version = h.defaultVer
	}

	mode := h.defaultMode
	if raw := r.URL.Query().Get("mode"); raw != "" {
		parsed, err := rules.ParseMode(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}

	report, err := h.logbook.Report(ctx, traineeID, month, version, mode)
	if err != nil {
		h.logger.Error().Err(err).Str("trainee_id", traineeID).Str("month", month).Msg("Failed to compute report")
		writeError(w, http.StatusInternalServerError, "Failed to compute report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}
