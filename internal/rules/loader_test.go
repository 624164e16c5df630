package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

const testRulesYAML = `versions:
  "2022":
    monthly_min_hours: 20
    monthly_max_hours: 130
    supervision_ratios:
      standard: 0.05
      concentrated: 0.10
    group_supervision_max_percent: 0.50
  "2027-draft":
    monthly_min_hours: 25
    monthly_max_hours: 120
    supervision_ratios:
      standard: 0.06
      concentrated: 0.12
    group_supervision_max_percent: 0.40
`

func writeRulesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulesets.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func newTestLoader(t *testing.T, path string) *Loader {
	t.Helper()
	loader, err := NewLoader(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return loader
}

func TestResolveRequestedVersion(t *testing.T) {
	loader := newTestLoader(t, writeRulesFile(t, testRulesYAML))

	ruleset, source := loader.Resolve("2027-draft")
	if source != SourceRequested {
		t.Fatalf("source = %v, want %v", source, SourceRequested)
	}
	if ruleset.Version != "2027-draft" {
		t.Errorf("Version = %q, want 2027-draft", ruleset.Version)
	}
	if ruleset.MonthlyMinHours != 25 {
		t.Errorf("MonthlyMinHours = %v, want 25", ruleset.MonthlyMinHours)
	}
	if got := ruleset.RatioFor(ModeConcentrated); got != 0.12 {
		t.Errorf("RatioFor(Concentrated) = %v, want 0.12", got)
	}
}

func TestResolveFallbackVersion(t *testing.T) {
	loader := newTestLoader(t, writeRulesFile(t, testRulesYAML))

	ruleset, source := loader.Resolve("1999")
	if source != SourceFallbackVersion {
		t.Fatalf("source = %v, want %v", source, SourceFallbackVersion)
	}
	if ruleset.Version != FallbackVersion {
		t.Errorf("Version = %q, want %q", ruleset.Version, FallbackVersion)
	}
}

func TestResolveMissingFileUsesBuiltinDefaults(t *testing.T) {
	loader := newTestLoader(t, filepath.Join(t.TempDir(), "does-not-exist.yaml"))

	ruleset, source := loader.Resolve("2022")
	if source != SourceBuiltinDefault {
		t.Fatalf("source = %v, want %v", source, SourceBuiltinDefault)
	}
	want := Default()
	if ruleset.MonthlyMinHours != want.MonthlyMinHours || ruleset.MonthlyMaxHours != want.MonthlyMaxHours {
		t.Errorf("builtin defaults not applied: %+v", ruleset)
	}
}

func TestResolveCorruptFileUsesBuiltinDefaults(t *testing.T) {
	loader := newTestLoader(t, writeRulesFile(t, "versions: [not, a, map"))

	_, source := loader.Resolve("2022")
	if source != SourceBuiltinDefault {
		t.Errorf("source = %v, want %v", source, SourceBuiltinDefault)
	}
}

func TestResolveEmptyFileUsesBuiltinDefaults(t *testing.T) {
	loader := newTestLoader(t, writeRulesFile(t, "versions: {}\n"))

	_, source := loader.Resolve("2022")
	if source != SourceBuiltinDefault {
		t.Errorf("source = %v, want %v", source, SourceBuiltinDefault)
	}
}

func TestResolveCaches(t *testing.T) {
	path := writeRulesFile(t, testRulesYAML)
	loader := newTestLoader(t, path)

	first, source := loader.Resolve("2022")
	if source != SourceRequested {
		t.Fatalf("source = %v, want %v", source, SourceRequested)
	}

	// Removing the file must not disturb an already-resolved version.
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove rules file: %v", err)
	}

	second, source := loader.Resolve("2022")
	if source != SourceRequested {
		t.Errorf("cached source = %v, want %v", source, SourceRequested)
	}
	if second.MonthlyMinHours != first.MonthlyMinHours {
		t.Errorf("cached ruleset differs: %+v vs %+v", second, first)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{input: "Standard", want: ModeStandard},
		{input: "standard", want: ModeStandard},
		{input: "CONCENTRATED", want: ModeConcentrated},
		{input: "", wantErr: true},
		{input: "intense", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMode(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMode(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRatioForUnknownMode(t *testing.T) {
	ruleset := Default()
	if got := ruleset.RatioFor(Mode("Experimental")); got != DefaultRatio {
		t.Errorf("RatioFor(unknown) = %v, want %v", got, DefaultRatio)
	}
}
