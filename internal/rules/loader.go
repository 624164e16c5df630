package rules

import (
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/goodtune/fieldtrack/internal/metrics"
)

// Source tags how a ruleset resolution was satisfied. Resolution never fails;
// the tag makes silent substitution observable so callers can log or alert
// instead of computing compliance against the wrong rules without a trace.
type Source string

const (
	// SourceRequested means the requested version was found in the parameter file.
	SourceRequested Source = "requested"
	// SourceFallbackVersion means the requested version was absent and the
	// fallback version was substituted from the parameter file.
	SourceFallbackVersion Source = "fallback-version"
	// SourceBuiltinDefault means the parameter file itself was unavailable or
	// unusable and the built-in bundle was substituted.
	SourceBuiltinDefault Source = "builtin-default"
)

const cacheSize = 16

// Loader resolves named ruleset versions against a keyed parameter file.
type Loader struct {
	path   string
	cache  *lru.Cache[string, resolution]
	logger zerolog.Logger
}

type resolution struct {
	ruleset RuleSet
	source  Source
}

// NewLoader creates a loader for the given parameter file path.
func NewLoader(path string, logger zerolog.Logger) (*Loader, error) {
	cache, err := lru.New[string, resolution](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create ruleset cache: %w", err)
	}
	return &Loader{
		path:   path,
		cache:  cache,
		logger: logger.With().Str("component", "rules").Logger(),
	}, nil
}

// Resolve returns the ruleset for a version key. It never returns an error:
// unknown versions fall back to the FallbackVersion bundle, and an unreadable
// parameter file falls back to the built-in defaults. The returned Source
// records which of the three paths was taken.
func (l *Loader) Resolve(version string) (RuleSet, Source) {
	if cached, ok := l.cache.Get(version); ok {
		return cached.ruleset, cached.source
	}

	ruleset, source := l.resolve(version)

	switch source {
	case SourceFallbackVersion:
		l.logger.Warn().
			Str("requested", version).
			Str("substituted", ruleset.Version).
			Msg("Requested ruleset version not found, substituting fallback")
		metrics.RulesetFallbacks.WithLabelValues(string(source)).Inc()
	case SourceBuiltinDefault:
		l.logger.Warn().
			Str("requested", version).
			Str("path", l.path).
			Msg("Ruleset parameter file unavailable, substituting built-in defaults")
		metrics.RulesetFallbacks.WithLabelValues(string(source)).Inc()
	}

	l.cache.Add(version, resolution{ruleset: ruleset, source: source})
	return ruleset, source
}

func (l *Loader) resolve(version string) (RuleSet, Source) {
	versions, err := l.readFile()
	if err != nil {
		l.logger.Debug().Err(err).Str("path", l.path).Msg("Failed to read ruleset parameter file")
		return Default(), SourceBuiltinDefault
	}

	if ruleset, ok := versions[version]; ok {
		return ruleset, SourceRequested
	}
	if ruleset, ok := versions[FallbackVersion]; ok {
		return ruleset, SourceFallbackVersion
	}
	return Default(), SourceBuiltinDefault
}

// fileRuleSet is the on-disk shape of one version entry. Ratio keys arrive
// with arbitrary casing (viper lowercases map keys) and are normalized here.
type fileRuleSet struct {
	MonthlyMinHours            float64            `mapstructure:"monthly_min_hours"`
	MonthlyMaxHours            float64            `mapstructure:"monthly_max_hours"`
	SupervisionRatios          map[string]float64 `mapstructure:"supervision_ratios"`
	GroupSupervisionMaxPercent float64            `mapstructure:"group_supervision_max_percent"`
}

func (l *Loader) readFile() (map[string]RuleSet, error) {
	if l.path == "" {
		return nil, fmt.Errorf("no ruleset file configured")
	}

	v := viper.New()
	v.SetConfigFile(l.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read ruleset file: %w", err)
	}

	var raw map[string]fileRuleSet
	if err := v.UnmarshalKey("versions", &raw); err != nil {
		return nil, fmt.Errorf("unmarshal ruleset versions: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("ruleset file has no versions")
	}

	versions := make(map[string]RuleSet, len(raw))
	for key, entry := range raw {
		ratios := make(map[Mode]float64, len(entry.SupervisionRatios))
		for mode, ratio := range entry.SupervisionRatios {
			ratios[normalizeMode(mode)] = ratio
		}
		versions[key] = RuleSet{
			Version:                    key,
			MonthlyMinHours:            entry.MonthlyMinHours,
			MonthlyMaxHours:            entry.MonthlyMaxHours,
			SupervisionRatios:          ratios,
			GroupSupervisionMaxPercent: entry.GroupSupervisionMaxPercent,
		}
	}
	return versions, nil
}

func normalizeMode(s string) Mode {
	s = strings.TrimSpace(s)
	if s == "" {
		return Mode("")
	}
	return Mode(strings.ToUpper(s[:1]) + strings.ToLower(s[1:]))
}
