// Package spec parses "tool@version" requests.
package spec

import (
	"fmt"
	"strings"
)

// DefaultVersion asks for the configured default of a tool.
const DefaultVersion = "default"

type Spec struct {
	Tool    string
	Version string
}

func (s Spec) String() string {
	return fmt.Sprintf("%s@%s", s.Tool, s.Version)
}

// IsDefault reports whether s leaves the version choice to the defaults table.
func (s Spec) IsDefault() bool {
	return s.Version == DefaultVersion
}

func Parse(input string) (Spec, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Spec{}, fmt.Errorf("spec cannot be empty")
	}

	tool, version, _ := strings.Cut(input, "@")
	tool = strings.ToLower(strings.TrimSpace(tool))
	version = strings.TrimSpace(version)
	if tool == "" {
		return Spec{}, fmt.Errorf("spec %q has no tool name", input)
	}
	if strings.ContainsAny(tool, `/\:`) {
		return Spec{}, fmt.Errorf("invalid tool name %q", tool)
	}
	if version == "" {
		version = DefaultVersion
	}

	return Spec{
		Tool:    tool,
		Version: version,
	}, nil
}

// ParseAll parses every input, stopping at the first invalid one.
func ParseAll(inputs []string) ([]Spec, error) {
	specs := make([]Spec, 0, len(inputs))
	for _, in := range inputs {
		s, err := Parse(in)
		if err != nil {
			return nil, err
		}
		specs = append(specs, s)
	}
	return specs, nil
}
