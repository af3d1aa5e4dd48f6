package instrument

import (
	"sort"
	"strings"
)

// ScaleEntry maps one answer label to an ordinal code. A nil code marks an
// explicit "don't know" answer.
type ScaleEntry struct {
	Label string `yaml:"label" json:"label"`
	Code  *int   `yaml:"code" json:"code"`
}

// Scale is an ordinal mapping for one question family
type Scale struct {
	Name      string         `yaml:"-" json:"name"`
	Direction string         `yaml:"direction" json:"direction"`
	Entries   []ScaleEntry   `yaml:"entries" json:"entries"`
	Labels    map[int]string `yaml:"labels" json:"labels,omitempty"` // short display labels per code
}

// Exact returns the first entry whose label equals the text, ignoring case
func (s *Scale) Exact(text string) (ScaleEntry, bool) {
	t := strings.TrimSpace(text)
	for _, e := range s.Entries {
		if strings.EqualFold(e.Label, t) {
			return e, true
		}
	}
	return ScaleEntry{}, false
}

// Contains returns the entry whose label occurs inside any of the texts.
// The longest label wins so "Confident" never shadows "Very Confident";
// equal lengths fall back to declaration order.
func (s *Scale) Contains(texts ...string) (ScaleEntry, bool) {
	best := -1
	for i, e := range s.Entries {
		if e.Label == "" {
			continue
		}
		for _, t := range texts {
			if strings.Contains(t, e.Label) {
				if best < 0 || len(e.Label) > len(s.Entries[best].Label) {
					best = i
				}
				break
			}
		}
	}
	if best < 0 {
		return ScaleEntry{}, false
	}
	return s.Entries[best], true
}

// Region is a named list of country spellings
type Region struct {
	Name      string   `yaml:"name" json:"name"`
	Countries []string `yaml:"countries" json:"countries"`
}

// Registry holds the immutable lookup tables of one survey instrument
type Registry struct {
	Scales        map[string]*Scale `json:"scales"`
	Regions       []Region          `json:"regions"`
	CountryFixes  map[string]string `json:"country_fixes"`
	OtherRegion   string            `json:"other_region"`
	scaleNamesOrd []string
}

// Scale returns a scale by name
func (r *Registry) Scale(name string) (*Scale, bool) {
	s, ok := r.Scales[name]
	return s, ok
}

// ScaleNames returns scale names in declaration order
func (r *Registry) ScaleNames() []string {
	if len(r.scaleNamesOrd) == len(r.Scales) {
		return append([]string(nil), r.scaleNamesOrd...)
	}
	names := make([]string, 0, len(r.Scales))
	for n := range r.Scales {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RegionOf returns the region listing the country, or "" if none does
func (r *Registry) RegionOf(country string) string {
	for _, reg := range r.Regions {
		for _, c := range reg.Countries {
			if c == country {
				return reg.Name
			}
		}
	}
	return ""
}

// NewRegistry builds a registry from in-memory tables; used by tests and the loader
func NewRegistry(scales map[string]*Scale, order []string, regions []Region, fixes map[string]string) *Registry {
	for name, s := range scales {
		s.Name = name
	}
	if fixes == nil {
		fixes = map[string]string{}
	}
	return &Registry{
		Scales:        scales,
		Regions:       regions,
		CountryFixes:  fixes,
		OtherRegion:   "Other",
		scaleNamesOrd: order,
	}
}

// Code returns a pointer to an int, for building fixture scales
func Code(i int) *int { return &i }
