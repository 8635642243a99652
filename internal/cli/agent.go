package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rapids-dev/rapids/internal/agents"
	"github.com/rapids-dev/rapids/internal/analyzer"
	"github.com/rapids-dev/rapids/internal/clog"
	"github.com/rapids-dev/rapids/internal/configstore"
	"github.com/rapids-dev/rapids/internal/fileutil"
	"github.com/rapids-dev/rapids/internal/rerr"
)

type AgentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type,omitempty"`
	Triggers    []string `json:"triggers,omitempty"`
}

type AgentInvocation struct {
	Agent   string                    `json:"agent"`
	Prompt  string                    `json:"prompt,omitempty"`
	Message string                    `json:"message"`
	Context *agents.InvocationContext `json:"context,omitempty"`
}

func RunAgent(cmd *cobra.Command, args []string) error {
	rt, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	trigger, err := OptionalStringFlag(cmd, "trigger")
	if err != nil {
		return err
	}

	if !rt.Store.IsInstalled() {
		return rerr.New(rerr.NotInstalled, "rapids is not installed; run `rapids install` first")
	}
	catalog, err := agents.Load(rt.Store)
	if err != nil {
		return err
	}

	switch {
	case trigger != "":
		return printAgentList(catalog.FindByTrigger(trigger), asJSON)
	case len(args) == 0:
		list := make([]AgentInfo, 0, catalog.Len())
		for _, name := range catalog.List() {
			def, _ := catalog.Get(name)
			list = append(list, agentInfo(name, def.Description, string(def.Type), def.Triggers))
		}
		return printAgentInfos(list, asJSON)
	}

	name := args[0]
	prompt := strings.TrimSpace(strings.Join(args[1:], " "))
	invocation := AgentInvocation{Agent: name, Prompt: prompt}
	var ictx agents.InvocationContext
	if prompt != "" {
		ictx = invocationContext(rt)
		invocation.Context = &ictx
	}
	message, err := catalog.FormatInvocation(name, prompt, ictx)
	if err != nil {
		return err
	}
	invocation.Message = message
	if asJSON {
		return fileutil.PrintJSON(invocation)
	}
	fmt.Println(message)
	return nil
}

// invocationContext describes the working directory; detection failures
// leave fields empty.
func invocationContext(rt *runtimeEnv) agents.InvocationContext {
	wd, err := resolveWorkingDirectory()
	if err != nil {
		return agents.InvocationContext{}
	}
	ictx := agents.InvocationContext{WorkingDir: wd}
	if a, err := analyzer.Analyze(wd); err == nil {
		ictx.ProjectType = string(a.Topology)
	}
	overlay, err := rt.Store.LoadProjectOverlay(wd)
	if err != nil {
		rt.Logger.Debug("project overlay not loaded", clog.Err(err))
	} else if overlay != nil {
		ictx.StackConfig = overlay.Stack
	}
	return ictx
}

func agentInfo(name, description, kind string, triggers []string) AgentInfo {
	return AgentInfo{Name: name, Description: description, Type: kind, Triggers: triggers}
}

func printAgentList(defs []configstore.AgentDefinition, asJSON bool) error {
	list := make([]AgentInfo, 0, len(defs))
	for _, def := range defs {
		list = append(list, agentInfo(def.Name, def.Description, string(def.Type), def.Triggers))
	}
	return printAgentInfos(list, asJSON)
}

func printAgentInfos(list []AgentInfo, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(list)
	}
	if len(list) == 0 {
		fmt.Println("no matching agents")
		return nil
	}
	for _, info := range list {
		fmt.Printf("%-24s %s\n", info.Name, info.Description)
	}
	return nil
}
