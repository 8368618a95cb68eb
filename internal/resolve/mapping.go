package resolve

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/curaious/timesheet/internal/period"
	"gopkg.in/yaml.v3"
)

// Mapping is the operator-maintained table of known renames. Rules are
// evaluated in file order; the first rule in effect for a name wins.
type Mapping struct {
	Version int      `yaml:"version" json:"version"`
	Renames []Rename `yaml:"renames" json:"renames"`
}

type Rename struct {
	OldName string `yaml:"old_name" json:"old_name"`
	NewName string `yaml:"new_name" json:"new_name"`
	// EffectiveFrom is the day the rule starts applying. Empty means always.
	EffectiveFrom string `yaml:"effective_from,omitempty" json:"effective_from,omitempty"`

	effectiveFrom time.Time
}

// LoadMapping reads and validates a YAML mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rename mapping: %w", err)
	}
	m, err := ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse rename mapping: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// MappingFromPairs builds an unversioned mapping from plain old -> new pairs.
// Map iteration order is random, so pairs are ordered by old name.
func MappingFromPairs(pairs map[string]string) *Mapping {
	m := &Mapping{}
	for oldName, newName := range pairs {
		m.Renames = append(m.Renames, Rename{OldName: oldName, NewName: newName})
	}
	sort.Slice(m.Renames, func(i, j int) bool {
		return m.Renames[i].OldName < m.Renames[j].OldName
	})
	return m
}

func (m *Mapping) validate() error {
	for i := range m.Renames {
		r := &m.Renames[i]
		r.OldName = strings.TrimSpace(r.OldName)
		r.NewName = strings.TrimSpace(r.NewName)
		if r.OldName == "" || r.NewName == "" {
			return fmt.Errorf("renames[%d]: old_name and new_name are required", i)
		}
		if r.OldName == r.NewName {
			return fmt.Errorf("renames[%d]: %q maps to itself", i, r.OldName)
		}
		if r.EffectiveFrom != "" {
			t, err := period.ParseDay(r.EffectiveFrom)
			if err != nil {
				return fmt.Errorf("renames[%d]: effective_from: %w", i, err)
			}
			r.effectiveFrom = t
		}
	}
	return nil
}

// Lookup returns the new name for oldName under the first rule in effect at asOf.
func (m *Mapping) Lookup(oldName string, asOf time.Time) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, r := range m.Renames {
		if r.OldName != oldName {
			continue
		}
		if !r.effectiveFrom.IsZero() && asOf.Before(r.effectiveFrom) {
			continue
		}
		return r.NewName, true
	}
	return "", false
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Renames)
}
