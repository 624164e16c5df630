package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/goodtune/fieldtrack/internal/rules"
)

// RulesetHandler exposes the resolved compliance rulesets.
type RulesetHandler struct {
	loader *rules.Loader
	logger zerolog.Logger
}

// NewRulesetHandler creates a new ruleset handler.
func NewRulesetHandler(loader *rules.Loader, logger zerolog.Logger) *RulesetHandler {
	return &RulesetHandler{
		loader: loader,
		logger: logger.With().Str("handler", "ruleset").Logger(),
	}
}

// Get returns the ruleset that would apply for a version, including the
// source so a caller can see when a fallback was substituted.
func (h *RulesetHandler) Get(w http.ResponseWriter, r *http.Request) {
	version := mux.Vars(r)["version"]

	ruleset, source := h.loader.Resolve(version)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"requested": version,
		"source":    source,
		"ruleset":   ruleset,
	})
}
