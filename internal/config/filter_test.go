package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/jetfilter/internal/filter"
)

func TestDefaultFilterConfig(t *testing.T) {
	cfg := DefaultFilterConfig()

	if cfg.Mode == nil || *cfg.Mode != 2 {
		t.Errorf("Expected Mode 2, got %v", cfg.Mode)
	}
	if cfg.MinMeff == nil || *cfg.MinMeff != 180 {
		t.Errorf("Expected MinMeff 180, got %v", cfg.MinMeff)
	}
	if cfg.UsePt == nil || *cfg.UsePt != true {
		t.Errorf("Expected UsePt true, got %v", cfg.UsePt)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	// The defaults and the unset accessors must agree.
	if diff := cmp.Diff(EmptyFilterConfig().Params(), cfg.Params()); diff != "" {
		t.Errorf("default params differ from fallback params (-empty +default):\n%s", diff)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if diff := cmp.Diff(DefaultFilterConfig().Params(), cfg.Params()); diff != "" {
		t.Errorf("%s does not match DefaultFilterConfig (-want +got):\n%s", DefaultConfigPath, diff)
	}
}

func TestLoadFilterConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "alphat.json")

	testJSON := `{
  "input_jet_tag": "hltAK5CaloJets",
  "save_tag": true,
  "mode": 5,
  "use_pt": false,
  "min_pt_jet": [40, 50],
  "eta_jet": [3.0, 5.0],
  "min_ht": 250,
  "min_alpha_t": 0.55
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadFilterConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	want := filter.Params{
		Mode:      filter.ModeHTAlphaT,
		UsePt:     false,
		MinPtJet:  []float64{40, 50},
		EtaJet:    []float64{3, 5},
		MinMeff:   180,
		MinHT:     250,
		MinAlphaT: 0.55,
		InputTag:  "hltAK5CaloJets",
		SaveTag:   true,
	}
	if diff := cmp.Diff(want, cfg.Params()); diff != "" {
		t.Errorf("Params() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFilterConfigMissing(t *testing.T) {
	_, err := LoadFilterConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadFilterConfigWrongExtension(t *testing.T) {
	_, err := LoadFilterConfig("filter.yaml")
	if err == nil {
		t.Error("Expected error for non-json extension, got nil")
	}
}

func TestLoadFilterConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name         string
		body         string
		inconsistent bool
	}{
		{name: "malformed json", body: `{"mode": "five"`},
		{name: "mode 5 with single selection", body: `{"mode": 5, "min_pt_jet": [40], "eta_jet": [3]}`, inconsistent: true},
		{name: "mismatched arrays", body: `{"mode": 4, "min_pt_jet": [40, 40], "eta_jet": [3]}`, inconsistent: true},
		{name: "unknown mode", body: `{"mode": 7}`, inconsistent: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, "cfg"+string(rune('a'+i))+".json")
			if err := os.WriteFile(path, []byte(tt.body), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}
			_, err := LoadFilterConfig(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := errors.Is(err, filter.ErrInconsistentConfig); got != tt.inconsistent {
				t.Errorf("errors.Is(err, ErrInconsistentConfig) = %v, want %v (err=%v)", got, tt.inconsistent, err)
			}
		})
	}
}

func TestGetMinPtJetReturnsCopy(t *testing.T) {
	cfg := &FilterConfig{MinPtJet: []float64{30, 40}}
	got := cfg.GetMinPtJet()
	got[0] = 999
	if cfg.MinPtJet[0] != 30 {
		t.Errorf("GetMinPtJet() aliases the config slice")
	}
}
