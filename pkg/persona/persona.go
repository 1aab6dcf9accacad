// Package persona holds the work-style scoring profiles. The built-in
// table is pure configuration data: constructed once, never mutated, and
// threaded explicitly into every analysis call.
package persona

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/codeGROOVE-dev/bandwidth/pkg/calendar"
)

// DefaultID is the persona used when a requested id is unknown.
const DefaultID = "balanced"

// Profile is an immutable named set of scoring coefficients.
type Profile struct {
	ID                     string                           `json:"id" mapstructure:"id"`
	Label                  string                           `json:"label" mapstructure:"label"`
	LoadTarget             float64                          `json:"loadTarget" mapstructure:"loadTarget"`
	LoadTolerance          float64                          `json:"loadTolerance" mapstructure:"loadTolerance"`
	AdjacencyPenaltyWeight float64                          `json:"adjacencyPenaltyWeight" mapstructure:"adjacencyPenaltyWeight"`
	DensityPenaltyWeight   float64                          `json:"densityPenaltyWeight" mapstructure:"densityPenaltyWeight"`
	PreferenceRelief       float64                          `json:"preferenceRelief" mapstructure:"preferenceRelief"`
	TypeWeights            map[calendar.MeetingType]float64 `json:"typeWeights" mapstructure:"typeWeights"`
}

// TypeWeight returns the desirability weight for a meeting type, falling
// back to the "other" weight and finally 0.5 when neither is configured.
func (p Profile) TypeWeight(t calendar.MeetingType) float64 {
	if w, ok := p.TypeWeights[t]; ok {
		return w
	}
	if w, ok := p.TypeWeights[calendar.TypeOther]; ok {
		return w
	}
	return 0.5
}

// Table is an immutable persona lookup.
type Table struct {
	profiles map[string]Profile
}

// Builtin returns the shipped persona table.
func Builtin() *Table {
	return &Table{profiles: map[string]Profile{
		"meeting-heavy": {
			ID:                     "meeting-heavy",
			Label:                  "Meeting-heavy",
			LoadTarget:             0.75,
			LoadTolerance:          0.35,
			AdjacencyPenaltyWeight: 0.12,
			DensityPenaltyWeight:   0.12,
			PreferenceRelief:       0.45,
			TypeWeights: map[calendar.MeetingType]float64{
				calendar.TypeInvestors:  1.0,
				calendar.TypeCustomers:  0.9,
				calendar.TypeCandidates: 0.8,
				calendar.TypeOther:      0.6,
			},
		},
		"balanced": {
			ID:                     "balanced",
			Label:                  "Balanced",
			LoadTarget:             0.5,
			LoadTolerance:          0.3,
			AdjacencyPenaltyWeight: 0.18,
			DensityPenaltyWeight:   0.2,
			PreferenceRelief:       0.25,
			TypeWeights: map[calendar.MeetingType]float64{
				calendar.TypeInvestors:  0.85,
				calendar.TypeCustomers:  0.95,
				calendar.TypeCandidates: 0.9,
				calendar.TypeOther:      0.6,
			},
		},
		"maker": {
			ID:                     "maker",
			Label:                  "Maker / Focus",
			LoadTarget:             0.25,
			LoadTolerance:          0.25,
			AdjacencyPenaltyWeight: 0.24,
			DensityPenaltyWeight:   0.3,
			PreferenceRelief:       0.1,
			TypeWeights: map[calendar.MeetingType]float64{
				calendar.TypeInvestors:  0.75,
				calendar.TypeCustomers:  0.8,
				calendar.TypeCandidates: 0.7,
				calendar.TypeOther:      0.45,
			},
		},
	}}
}

// Lookup resolves a persona id, silently falling back to the default
// profile for unknown or empty ids. Degraded input is policy here, not
// failure.
func (t *Table) Lookup(id string) Profile {
	if p, ok := t.profiles[id]; ok {
		return p
	}
	return t.profiles[DefaultID]
}

// IDs returns the known persona ids (unordered).
func (t *Table) IDs() []string {
	ids := make([]string, 0, len(t.profiles))
	for id := range t.profiles {
		ids = append(ids, id)
	}
	return ids
}

// LoadOverrides reads additional or replacement profiles from a YAML or
// JSON file and returns a new table layered over the built-ins. The file
// holds a "personas" list of Profile objects. Loading happens once at
// process start; the returned table is immutable like the built-in one.
func LoadOverrides(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading persona overrides: %w", err)
	}

	var file struct {
		Personas []Profile `mapstructure:"personas"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decoding persona overrides: %w", err)
	}

	merged := Builtin()
	for _, p := range file.Personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona override missing id in %s", path)
		}
		normalized := make(map[calendar.MeetingType]float64, len(p.TypeWeights))
		for t, w := range p.TypeWeights {
			normalized[calendar.NormalizeType(string(t))] = w
		}
		p.TypeWeights = normalized
		merged.profiles[p.ID] = p
	}

	return merged, nil
}
