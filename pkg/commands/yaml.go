package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RawRegistry is the YAML shape of an external command catalog.
type RawRegistry struct {
	Version int          `yaml:"version"`
	Zones   []RawZoneDef `yaml:"zones"`
}

// RawZoneDef declares one zone and its commands.
type RawZoneDef struct {
	Name     string          `yaml:"name"`
	Aliases  []string        `yaml:"aliases"`
	Commands []RawCommandDef `yaml:"commands"`
}

// RawCommandDef declares one command descriptor.
type RawCommandDef struct {
	Name   string        `yaml:"name"`
	Opcode string        `yaml:"opcode"`
	Values []RawValueDef `yaml:"values"`
	Ranges []RawRangeDef `yaml:"ranges"`
	Raw    bool          `yaml:"raw"`
}

// RawValueDef declares one literal alias.
type RawValueDef struct {
	Name string `yaml:"name"`
	Wire string `yaml:"wire"`
}

// RawRangeDef declares one bounded integer encoding, end exclusive.
type RawRangeDef struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// ParseRegistry builds a registry from YAML bytes.
func ParseRegistry(data []byte) (*Registry, error) {
	var raw RawRegistry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing command catalog: %w", err)
	}

	r := NewRegistry()
	for _, z := range raw.Zones {
		if err := r.AddZone(z.Name, z.Aliases...); err != nil {
			return nil, err
		}
		for _, c := range z.Commands {
			d := Descriptor{
				Name:   c.Name,
				Opcode: c.Opcode,
				Raw:    c.Raw,
			}
			for _, v := range c.Values {
				d.Values = append(d.Values, ValueDef{Name: v.Name, Wire: v.Wire})
			}
			for _, rng := range c.Ranges {
				d.Ranges = append(d.Ranges, IntRange{Start: rng.Start, End: rng.End})
			}
			if err := r.AddCommand(z.Name, d); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// LoadRegistry loads and parses a command catalog from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseRegistry(data)
}
