package config

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlFile is the YAML configuration layout. Groups is kept as a node so that
// section and key order survive decoding.
type yamlFile struct {
	Distance    *int      `yaml:"distance"`
	NearestPool string    `yaml:"nearest_pool"`
	Sources     []string  `yaml:"sources"`
	Groups      yaml.Node `yaml:"groups"`
}

func decodeYAML(r io.Reader) (*Config, error) {
	var f yamlFile
	dec := yaml.NewDecoder(r)
	// A misspelled key would otherwise fall back to its default unnoticed.
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	cfg := &Config{
		Distance:    DefaultDistance,
		Sources:     f.Sources,
		NearestPool: f.NearestPool,
	}
	if f.Distance != nil {
		if *f.Distance < 0 {
			return nil, fmt.Errorf("invalid %s %d: must not be negative", KeyDistance, *f.Distance)
		}
		cfg.Distance = *f.Distance
	}

	sections, err := decodeGroups(&f.Groups)
	if err != nil {
		return nil, err
	}
	cfg.Sections = sections
	return cfg, nil
}

func decodeGroups(n *yaml.Node) ([]Section, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: groups must be a mapping of sections", n.Line)
	}

	var sections []Section
	index := make(map[string]int)
	for i := 0; i+1 < len(n.Content); i += 2 {
		name, body := n.Content[i], n.Content[i+1]
		if body.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: section %q must be a mapping of label: sample", body.Line, name.Value)
		}

		pos, ok := index[name.Value]
		if !ok {
			pos = len(sections)
			index[name.Value] = pos
			sections = append(sections, Section{Name: name.Value})
		}

		for j := 0; j+1 < len(body.Content); j += 2 {
			key, value := body.Content[j], body.Content[j+1]
			if value.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: sample for %q must be a string", value.Line, key.Value)
			}
			sections[pos].Entries = append(sections[pos].Entries, Entry{Key: key.Value, Value: value.Value})
		}
	}
	return sections, nil
}
