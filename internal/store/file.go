package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/polisim/internal/ideology"
	"github.com/nvandessel/polisim/internal/sanitize"
)

// ReadElectorateFile loads an electorate from a JSON or YAML file. A bare
// array of citizens is accepted and named after the file.
func ReadElectorateFile(path string) (*Electorate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading electorate file: %w", err)
	}

	var e Electorate
	if isYAML(path) {
		var probe any
		if err := yaml.Unmarshal(data, &probe); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if _, isList := probe.([]any); isList {
			err = yaml.Unmarshal(data, &e.Citizens)
		} else {
			err = yaml.Unmarshal(data, &e)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	} else {
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "[") {
			err = json.Unmarshal(data, &e.Citizens)
		} else {
			err = json.Unmarshal(data, &e)
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	CleanText(&e)
	if e.Name == "" {
		e.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := ideology.ValidateElectorate(e.Citizens); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	e.Size = len(e.Citizens)
	return &e, nil
}

// WriteElectorateFile writes e as indented JSON, or YAML for .yaml/.yml paths.
func WriteElectorateFile(path string, e *Electorate) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(e)
	} else {
		data, err = json.MarshalIndent(e, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("encoding electorate: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing electorate file: %w", err)
	}
	return nil
}

// ReadPolicyFile loads and validates a policy from a JSON or YAML file.
func ReadPolicyFile(path string) (ideology.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ideology.Policy{}, fmt.Errorf("reading policy file: %w", err)
	}

	var p ideology.Policy
	if isYAML(path) {
		err = yaml.Unmarshal(data, &p)
	} else {
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		return ideology.Policy{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return ideology.Policy{}, fmt.Errorf("%s: %w", path, err)
	}
	p.Title = sanitize.Label(p.Title)
	p.Description = sanitize.Text(p.Description)
	return p, nil
}

// CleanText sanitizes the free-text fields of e in place: names and titles
// as labels, descriptions and worldviews as text.
func CleanText(e *Electorate) {
	e.Name = sanitize.Label(e.Name)
	e.Description = sanitize.Text(e.Description)
	for i := range e.Citizens {
		c := &e.Citizens[i]
		c.Name = sanitize.Label(c.Name)
		c.Worldview = sanitize.Text(c.Worldview)
	}
	for i := range e.Factions {
		f := &e.Factions[i]
		f.Name = sanitize.Label(f.Name)
		f.Description = sanitize.Text(f.Description)
	}
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
