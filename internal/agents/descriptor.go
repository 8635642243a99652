package agents

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/rerr"
)

// DefaultTools is written when a definition names no tools.
var DefaultTools = []string{"Bash", "Edit", "Glob", "Grep", "Read", "Write", "WebFetch", "WebSearch"}

const DefaultModel = "sonnet"

type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Tools       string `yaml:"tools"`
	Model       string `yaml:"model"`
}

// Materialize renders the descriptor file for a named agent without
// writing it.
func (c *Catalog) Materialize(name string) (string, error) {
	def, err := c.Get(name)
	if err != nil {
		return "", err
	}
	return Render(def)
}

// Render formats def as a markdown descriptor: YAML front matter, the
// instructions, then context file and trigger sections.
func Render(def configstore.AgentDefinition) (string, error) {
	tools := def.Tools
	if len(tools) == 0 {
		tools = DefaultTools
	}
	model := def.Model
	if model == "" {
		model = DefaultModel
	}
	header, err := yaml.Marshal(frontMatter{
		Name:        def.Name,
		Description: def.Description,
		Tools:       strings.Join(tools, ", "),
		Model:       model,
	})
	if err != nil {
		return "", fmt.Errorf("encode front matter for %s: %w", def.Name, err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimRight(def.Instructions, "\n"))
	b.WriteString("\n\n## Context Files\n")
	if len(def.Context) == 0 {
		b.WriteString("No specific context files\n")
	} else {
		for _, ref := range def.Context {
			b.WriteString("- " + ref + "\n")
		}
	}
	b.WriteString("\n## Triggers\nThis agent activates for:\n")
	for _, trigger := range def.Triggers {
		b.WriteString("- " + trigger + "\n")
	}
	return b.String(), nil
}

// ToolList accepts either a comma-separated string or a YAML sequence.
type ToolList []string

func (t *ToolList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, part := range strings.Split(node.Value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*t = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	default:
		return fmt.Errorf("tools: unsupported YAML kind %v", node.Kind)
	}
}

// Descriptor is a parsed agent descriptor file.
type Descriptor struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tools       ToolList `yaml:"tools"`
	Model       string   `yaml:"model"`
	Body        string   `yaml:"-"`
}

// ParseDescriptor reads front matter and body. fallbackName is used when
// the front matter has no name.
func ParseDescriptor(content, fallbackName string) (*Descriptor, error) {
	front, body, ok := splitFrontMatter(content)
	if !ok {
		return nil, rerr.New(rerr.ConfigCorrupt, "descriptor has no front matter")
	}
	var d Descriptor
	if err := yaml.Unmarshal([]byte(front), &d); err != nil {
		return nil, rerr.Wrap(rerr.ConfigCorrupt, "parse descriptor front matter", err)
	}
	if d.Name == "" {
		d.Name = fallbackName
	}
	if strings.TrimSpace(d.Description) == "" {
		return nil, rerr.WithDetails(rerr.ConfigCorrupt, "descriptor is missing description",
			map[string]string{"agent": d.Name})
	}
	d.Body = body
	return &d, nil
}

func splitFrontMatter(content string) (front, body string, ok bool) {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", "", false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[1:i], "\n"), strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n"), true
		}
	}
	return "", "", false
}

// DescriptorCounts tallies the descriptor files in a directory.
type DescriptorCounts struct {
	Valid   int      `json:"valid"`
	Invalid []string `json:"invalid,omitempty"`
}

// ScanDescriptors parses every *.md file in dir. A missing directory
// yields zero counts.
func ScanDescriptors(dir string) (DescriptorCounts, error) {
	var counts DescriptorCounts
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return counts, nil
	}
	if err != nil {
		return counts, rerr.Wrap(rerr.PathInaccessible, "read "+dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err == nil {
			_, err = ParseDescriptor(string(data), strings.TrimSuffix(entry.Name(), ".md"))
		}
		if err != nil {
			counts.Invalid = append(counts.Invalid, entry.Name())
			continue
		}
		counts.Valid++
	}
	return counts, nil
}
