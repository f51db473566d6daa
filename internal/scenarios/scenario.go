// Package scenarios runs ordered, labeled JSON-RPC calls and checks their
// responses against expectations.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario represents a test scenario defined in YAML.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty"`
	Timeout     string `yaml:"timeout,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Step is either a call (Method set) or a pause (Sleep set).
type Step struct {
	Name   string                 `yaml:"name"`
	Method string                 `yaml:"method,omitempty"`
	Params []interface{}          `yaml:"params,omitempty"`
	ID     interface{}            `yaml:"id,omitempty"`
	Sleep  string                 `yaml:"sleep,omitempty"`
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Default returns the built-in two-call run: ping, then wait for 4 seconds.
// Ids come from the client, which sends 1 for both in the default fixed mode.
// There are no expectations; responses are only printed.
func Default() *Scenario {
	return &Scenario{
		Name:        "ping-wait",
		Description: "ping answered immediately, then wait answered after 4 seconds",
		Steps: []Step{
			{
				Name:   "ping: pong immediately",
				Method: "ping",
				Params: []interface{}{},
			},
			{
				Name:   "ping: pong after 4 secs",
				Method: "wait",
				Params: []interface{}{4},
			},
		},
	}
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := Validate(&s).Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenario loads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
