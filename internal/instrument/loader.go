package instrument

import (
	_ "embed"
	"fmt"
	"os"

	"embsurvey/internal/errors"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultInstrument []byte

// Instrument bundles the lookup tables and the field layout of one survey
type Instrument struct {
	Registry *Registry
	Schema   *Schema
}

type fileFormat struct {
	Scales       yaml.Node         `yaml:"scales"`
	Regions      []Region          `yaml:"regions"`
	CountryFixes map[string]string `yaml:"country_fixes"`
	OtherRegion  string            `yaml:"other_region"`
	Fields       []FieldSpec       `yaml:"fields"`
}

// Default returns the built-in electoral workforce survey instrument
func Default() (*Instrument, error) {
	return Parse(defaultInstrument)
}

// LoadFile reads an instrument definition from disk
func LoadFile(path string) (*Instrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	inst, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "instrument file %s", path)
	}
	return inst, nil
}

// Parse decodes and validates an instrument definition
func Parse(data []byte) (*Instrument, error) {
	var ff fileFormat
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("decode instrument: %w", err))
	}

	scales, order, err := decodeScales(&ff.Scales)
	if err != nil {
		return nil, err
	}

	reg := NewRegistry(scales, order, ff.Regions, ff.CountryFixes)
	if ff.OtherRegion != "" {
		reg.OtherRegion = ff.OtherRegion
	}
	if err := validateRegions(reg.Regions); err != nil {
		return nil, err
	}

	schema := &Schema{Fields: ff.Fields}
	if err := schema.Validate(reg); err != nil {
		return nil, err
	}

	return &Instrument{Registry: reg, Schema: schema}, nil
}

// decodeScales walks the mapping node so declaration order survives
func decodeScales(node *yaml.Node) (map[string]*Scale, []string, error) {
	scales := make(map[string]*Scale)
	var order []string
	if node.Kind == 0 {
		return scales, order, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, nil, errors.ConfigInvalid("scales must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var s Scale
		if err := node.Content[i+1].Decode(&s); err != nil {
			return nil, nil, errors.WithCode(errors.CodeConfigInvalid, fmt.Errorf("scale %q: %w", name, err))
		}
		if len(s.Entries) == 0 {
			return nil, nil, errors.ConfigInvalid(fmt.Sprintf("scale %q has no entries", name))
		}
		s.Name = name
		scales[name] = &s
		order = append(order, name)
	}
	return scales, order, nil
}

func validateRegions(regions []Region) error {
	owner := make(map[string]string)
	for _, r := range regions {
		for _, c := range r.Countries {
			if prev, ok := owner[c]; ok {
				return errors.ConfigInvalid(fmt.Sprintf("country %q listed in both %s and %s", c, prev, r.Name))
			}
			owner[c] = r.Name
		}
	}
	return nil
}
