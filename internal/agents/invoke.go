package agents

import (
	"encoding/json"
	"fmt"

	"github.com/rapids-dev/rapids/internal/configstore"
)

// InvocationContext describes where an agent is being invoked from.
type InvocationContext struct {
	WorkingDir  string                   `json:"workingDir"`
	ProjectType string                   `json:"projectType,omitempty"`
	StackConfig *configstore.StackConfig `json:"stackConfig,omitempty"`
}

// FormatInvocation renders the message shown when an agent is invoked
// directly. Without a prompt it prints the agent's instructions.
func (c *Catalog) FormatInvocation(name, prompt string, ctx InvocationContext) (string, error) {
	def, err := c.Get(name)
	if err != nil {
		return "", err
	}
	if prompt == "" {
		return fmt.Sprintf("Agent '%s' is ready.\n\nInstructions:\n%s", name, def.Instructions), nil
	}
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Invoking agent '%s' with prompt: %s\n\nContext: %s", name, prompt, data), nil
}
