package missions

import (
	"fmt"
	"regexp"

	"sysadminsim/internal/api"
)

const (
	PackKind               = "pack"
	SupportedSchemaVersion = 1
	minDurationSeconds     = 30
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,63}$`)

type Pack struct {
	Kind          string    `yaml:"kind"`
	SchemaVersion int       `yaml:"schema_version"`
	PackID        string    `yaml:"pack_id"`
	Name          string    `yaml:"name"`
	Version       string    `yaml:"version"`
	DescriptionMD string    `yaml:"description_md"`
	Missions      []Mission `yaml:"missions"`

	Path string `yaml:"-"`
}

type Mission struct {
	ID                  string   `yaml:"id"`
	Title               string   `yaml:"title"`
	Difficulty          string   `yaml:"difficulty"`
	DurationSeconds     int      `yaml:"duration_seconds"`
	Scenario            string   `yaml:"scenario"`
	Objectives          []string `yaml:"objectives"`
	RecommendedCommands []string `yaml:"recommended_commands"`
	Intro               string   `yaml:"intro"`
	Steps               []Step   `yaml:"steps"`
}

type Step struct {
	ID               string   `yaml:"id"`
	Prompt           string   `yaml:"prompt"`
	ExpectedCommands []string `yaml:"expected_commands"`
	SuccessOutput    []string `yaml:"success_output"`
	NextPrompt       string   `yaml:"next_prompt"`
	Hint             string   `yaml:"hint"`
	Score            int      `yaml:"score"`
}

func (m Mission) Summary() api.MissionSummary {
	return api.MissionSummary{
		ID:                  m.ID,
		Title:               m.Title,
		Difficulty:          m.Difficulty,
		DurationSeconds:     m.DurationSeconds,
		Scenario:            m.Scenario,
		Objectives:          append([]string(nil), m.Objectives...),
		RecommendedCommands: append([]string(nil), m.RecommendedCommands...),
	}
}

func (p Pack) Validate() error {
	if p.Kind != PackKind {
		return fmt.Errorf("kind must be %q", PackKind)
	}
	if p.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if p.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported pack schema_version %d (max supported %d)", p.SchemaVersion, SupportedSchemaVersion)
	}
	if !idPattern.MatchString(p.PackID) {
		return fmt.Errorf("invalid pack_id %q", p.PackID)
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(p.Missions) == 0 {
		return fmt.Errorf("pack %q has no missions", p.PackID)
	}
	seen := map[string]bool{}
	for _, m := range p.Missions {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("mission %q: %w", m.ID, err)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate mission id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}

func (m Mission) Validate() error {
	if !idPattern.MatchString(m.ID) {
		return fmt.Errorf("invalid id %q", m.ID)
	}
	if m.Title == "" {
		return fmt.Errorf("title is required")
	}
	if m.DurationSeconds < minDurationSeconds {
		return fmt.Errorf("duration_seconds must be >= %d", minDurationSeconds)
	}
	if len(m.Objectives) == 0 {
		return fmt.Errorf("objectives must contain at least one item")
	}
	if len(m.Steps) == 0 {
		return fmt.Errorf("steps must contain at least one item")
	}
	seen := map[string]bool{}
	for _, s := range m.Steps {
		if s.ID == "" {
			return fmt.Errorf("steps[].id is required")
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Prompt == "" {
			return fmt.Errorf("step %q prompt is required", s.ID)
		}
		if len(s.ExpectedCommands) == 0 {
			return fmt.Errorf("step %q needs at least one expected command", s.ID)
		}
		if s.Score < 0 {
			return fmt.Errorf("step %q score must be >= 0", s.ID)
		}
	}
	return nil
}
