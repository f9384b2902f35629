package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/jetfilter/internal/filter"
)

// DefaultConfigPath is the path to the canonical filter defaults file.
const DefaultConfigPath = "config/filter.defaults.json"

// FilterConfig is the JSON configuration of one jet filter instance. Omitted
// fields fall back to the module defaults through the Get* accessors, so
// partial configs are safe.
type FilterConfig struct {
	InputJetTag *string `json:"input_jet_tag,omitempty"`
	SaveTag     *bool   `json:"save_tag,omitempty"`

	// Mode: 1=MHT, 2=Meff, 3=PT12, 4=HT, 5=HT and AlphaT.
	Mode  *int  `json:"mode,omitempty"`
	UsePt *bool `json:"use_pt,omitempty"`

	// Index 0 selects jets for HT / counting, index 1 for MHT.
	MinPtJet []float64 `json:"min_pt_jet,omitempty"`
	EtaJet   []float64 `json:"eta_jet,omitempty"`

	MinMht    *float64 `json:"min_mht,omitempty"`
	MinMeff   *float64 `json:"min_meff,omitempty"`
	MinPT12   *float64 `json:"min_pt12,omitempty"`
	MinHt     *float64 `json:"min_ht,omitempty"`
	MinAlphaT *float64 `json:"min_alpha_t,omitempty"`
	MinNJet   *int     `json:"min_n_jet,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyFilterConfig returns a FilterConfig with all fields unset.
func EmptyFilterConfig() *FilterConfig {
	return &FilterConfig{}
}

// DefaultFilterConfig returns a FilterConfig with every field set to its
// default value.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		InputJetTag: ptrString("hltMCJetCorJetIcone5HF07"),
		SaveTag:     ptrBool(false),
		Mode:        ptrInt(int(filter.ModeMeff)),
		UsePt:       ptrBool(true),
		MinPtJet:    []float64{20, 20},
		EtaJet:      []float64{9999, 9999},
		MinMht:      ptrFloat64(0),
		MinMeff:     ptrFloat64(180),
		MinPT12:     ptrFloat64(0),
		MinHt:       ptrFloat64(0),
		MinAlphaT:   ptrFloat64(0),
		MinNJet:     ptrInt(0),
	}
}

// LoadFilterConfig loads a FilterConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
func LoadFilterConfig(path string) (*FilterConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyFilterConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *FilterConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from cmd/jetfilter/
	}
	for _, path := range candidates {
		if cfg, err := LoadFilterConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the resolved configuration can build a filter.
func (c *FilterConfig) Validate() error {
	return c.Params().Validate()
}

// Params resolves the configuration into filter parameters.
func (c *FilterConfig) Params() filter.Params {
	return filter.Params{
		Mode:      filter.Mode(c.GetMode()),
		UsePt:     c.GetUsePt(),
		MinPtJet:  c.GetMinPtJet(),
		EtaJet:    c.GetEtaJet(),
		MinMHT:    c.GetMinMht(),
		MinMeff:   c.GetMinMeff(),
		MinPT12:   c.GetMinPT12(),
		MinHT:     c.GetMinHt(),
		MinAlphaT: c.GetMinAlphaT(),
		MinNJet:   c.GetMinNJet(),
		InputTag:  c.GetInputJetTag(),
		SaveTag:   c.GetSaveTag(),
	}
}

// GetInputJetTag returns the input_jet_tag value or the default.
func (c *FilterConfig) GetInputJetTag() string {
	if c.InputJetTag == nil {
		return "hltMCJetCorJetIcone5HF07"
	}
	return *c.InputJetTag
}

// GetSaveTag returns the save_tag value or the default.
func (c *FilterConfig) GetSaveTag() bool {
	if c.SaveTag == nil {
		return false
	}
	return *c.SaveTag
}

// GetMode returns the mode value or the default (Meff).
func (c *FilterConfig) GetMode() int {
	if c.Mode == nil {
		return int(filter.ModeMeff)
	}
	return *c.Mode
}

// GetUsePt returns the use_pt value or the default.
func (c *FilterConfig) GetUsePt() bool {
	if c.UsePt == nil {
		return true
	}
	return *c.UsePt
}

// GetMinPtJet returns a copy of min_pt_jet or the default pair.
func (c *FilterConfig) GetMinPtJet() []float64 {
	if c.MinPtJet == nil {
		return []float64{20, 20}
	}
	return append([]float64(nil), c.MinPtJet...)
}

// GetEtaJet returns a copy of eta_jet or the default pair.
func (c *FilterConfig) GetEtaJet() []float64 {
	if c.EtaJet == nil {
		return []float64{9999, 9999}
	}
	return append([]float64(nil), c.EtaJet...)
}

// GetMinMht returns the min_mht value or the default.
func (c *FilterConfig) GetMinMht() float64 {
	if c.MinMht == nil {
		return 0
	}
	return *c.MinMht
}

// GetMinMeff returns the min_meff value or the default.
func (c *FilterConfig) GetMinMeff() float64 {
	if c.MinMeff == nil {
		return 180
	}
	return *c.MinMeff
}

// GetMinPT12 returns the min_pt12 value or the default.
func (c *FilterConfig) GetMinPT12() float64 {
	if c.MinPT12 == nil {
		return 0
	}
	return *c.MinPT12
}

// GetMinHt returns the min_ht value or the default.
func (c *FilterConfig) GetMinHt() float64 {
	if c.MinHt == nil {
		return 0
	}
	return *c.MinHt
}

// GetMinAlphaT returns the min_alpha_t value or the default.
func (c *FilterConfig) GetMinAlphaT() float64 {
	if c.MinAlphaT == nil {
		return 0
	}
	return *c.MinAlphaT
}

// GetMinNJet returns the min_n_jet value or the default.
func (c *FilterConfig) GetMinNJet() int {
	if c.MinNJet == nil {
		return 0
	}
	return *c.MinNJet
}
