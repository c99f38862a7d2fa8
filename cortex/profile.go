package cortex

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile holds the parts of the agent request template that do not vary per query.
type Profile struct {
	Model                     string `yaml:"model"`
	ResponseInstruction       string `yaml:"response_instruction"`
	SearchResponseInstruction string `yaml:"search_response_instruction"`
	ToolChoice                string `yaml:"tool_choice"`
	AnalystToolName           string `yaml:"analyst_tool_name"`
	SearchToolName            string `yaml:"search_tool_name"`
	SQLExecToolName           string `yaml:"sql_exec_tool_name"`
}

// DefaultProfile returns the built-in request template.
func DefaultProfile() Profile {
	return Profile{
		Model:                     "claude-3-5-sonnet",
		ResponseInstruction:       "You are a helpful AI assistant.",
		SearchResponseInstruction: "You are a helpful search assistant.",
		ToolChoice:                "auto",
		AnalystToolName:           "Analyst1",
		SearchToolName:            "Search1",
		SQLExecToolName:           "sql_exec",
	}
}

// LoadProfile reads a yaml profile from path. Fields left out of the file
// keep their default values.
func LoadProfile(path string) (Profile, error) {
	profile := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return profile, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return profile, nil
}

// WithModel returns a copy of the profile using model when it is non-empty.
func (p Profile) WithModel(model string) Profile {
	if model != "" {
		p.Model = model
	}
	return p
}
