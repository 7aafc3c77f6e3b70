// Package snapshot reads a self-contained course gradebook (config, items,
// entries and roster) from a JSON, YAML or TOML file.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-gradebook/internal/grading"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported snapshot extension %q", filepath.Ext(path))
	}
}

type Snapshot struct {
	Config  grading.Config
	Items   []grading.Item
	Entries []grading.Entry
	// Roster defaults to every student with an entry.
	Roster []string
}

type fileSnapshot struct {
	Config  *grading.Config `json:"config"`
	Items   []grading.Item  `json:"items"`
	Entries []grading.Entry `json:"entries"`
	Roster  []string        `json:"roster"`
}

func Load(path string) (Snapshot, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, err
	}
	s, err := Decode(b, f)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode parses b. YAML and TOML documents are decoded generically and
// re-encoded as JSON, so every format goes through the same lenient
// grading config parser.
func Decode(b []byte, f Format) (Snapshot, error) {
	switch f {
	case FormatJSON:
	case FormatYAML:
		var doc map[string]any
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return Snapshot{}, fmt.Errorf("yaml: %w", err)
		}
		var err error
		if b, err = json.Marshal(doc); err != nil {
			return Snapshot{}, fmt.Errorf("yaml: %w", err)
		}
	case FormatTOML:
		var doc map[string]any
		if err := toml.Unmarshal(b, &doc); err != nil {
			return Snapshot{}, fmt.Errorf("toml: %w", err)
		}
		var err error
		if b, err = json.Marshal(doc); err != nil {
			return Snapshot{}, fmt.Errorf("toml: %w", err)
		}
	default:
		return Snapshot{}, fmt.Errorf("unknown format %q", f)
	}

	var fs fileSnapshot
	if err := json.Unmarshal(b, &fs); err != nil {
		return Snapshot{}, err
	}
	s := Snapshot{
		Config:  grading.DefaultConfig(),
		Items:   fs.Items,
		Entries: fs.Entries,
		Roster:  fs.Roster,
	}
	if fs.Config != nil {
		s.Config = *fs.Config
	}
	if len(s.Roster) == 0 {
		s.Roster = grading.RosterFromEntries(s.Entries)
	}
	for i, e := range s.Entries {
		if e.Status == "" {
			if e.Earned != nil {
				s.Entries[i].Status = grading.StatusGraded
			} else {
				s.Entries[i].Status = grading.StatusPending
			}
		}
	}
	return s, nil
}

func (s Snapshot) Gradebook() *grading.Gradebook {
	return grading.NewGradebook(s.Config, s.Items, s.Entries, s.Roster)
}
