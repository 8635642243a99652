// Package agents is the read-only view over installed agent definitions:
// lookup by name, lookup by trigger phrase, and descriptor rendering.
package agents

import (
	"slices"
	"sort"
	"strings"

	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/rerr"
)

// Registry supplies agent definitions keyed by name. *configstore.Store
// satisfies it.
type Registry interface {
	LoadAgentRegistry() (map[string]configstore.AgentDefinition, error)
}

type Catalog struct {
	agents map[string]configstore.AgentDefinition
	names  []string
}

// Load reads the registry once; the catalog does not observe later changes.
func Load(registry Registry) (*Catalog, error) {
	defs, err := registry.LoadAgentRegistry()
	if err != nil {
		return nil, err
	}
	return NewCatalog(defs), nil
}

// NewCatalog builds a catalog from definitions. A definition's Name falls
// back to its registry key.
func NewCatalog(defs map[string]configstore.AgentDefinition) *Catalog {
	c := &Catalog{agents: make(map[string]configstore.AgentDefinition, len(defs))}
	for key, def := range defs {
		if def.Name == "" {
			def.Name = key
		}
		c.agents[key] = def
		c.names = append(c.names, key)
	}
	sort.Strings(c.names)
	return c
}

// List returns every agent name in sorted order.
func (c *Catalog) List() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

func (c *Catalog) Len() int {
	return len(c.names)
}

func (c *Catalog) Get(name string) (configstore.AgentDefinition, error) {
	def, ok := c.agents[name]
	if !ok {
		return configstore.AgentDefinition{}, rerr.WithDetails(rerr.NotFound,
			"agent "+name+" not found", map[string]string{"agent": name})
	}
	return def, nil
}

// FindByTrigger returns the agents with at least one trigger matching
// phrase, sorted by name. Matching is case-insensitive and succeeds when
// either string contains the other, or when both share a word of three or
// more letters.
func (c *Catalog) FindByTrigger(phrase string) []configstore.AgentDefinition {
	needle := strings.ToLower(strings.TrimSpace(phrase))
	if needle == "" {
		return nil
	}
	var out []configstore.AgentDefinition
	for _, name := range c.names {
		def := c.agents[name]
		for _, trigger := range def.Triggers {
			if TriggerMatches(trigger, needle) {
				out = append(out, def)
				break
			}
		}
	}
	return out
}

// TriggerMatches reports whether phrase activates trigger: either contains
// the other, ignoring case, or the trigger's final word (the thing it acts
// on, "bug" in "fix bug") appears as a whole word in phrase. Final words
// shorter than three letters never match on their own.
func TriggerMatches(trigger, phrase string) bool {
	t := strings.ToLower(strings.TrimSpace(trigger))
	p := strings.ToLower(strings.TrimSpace(phrase))
	if t == "" || p == "" {
		return false
	}
	if strings.Contains(t, p) || strings.Contains(p, t) {
		return true
	}
	tw := words(t)
	if len(tw) == 0 {
		return false
	}
	object := tw[len(tw)-1]
	if len(object) < 3 {
		return false
	}
	return slices.Contains(words(p), object)
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
