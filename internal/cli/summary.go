package cli

import (
	"fmt"
	"strings"

	"github.com/rapids-dev/rapids/internal/agents"
)

type ProjectStatus struct {
	Root         string `json:"root"`
	Overlay      bool   `json:"overlay"`
	Instructions bool   `json:"instructions"`
}

type DoctorSummary struct {
	Mode        string                  `json:"mode"`
	Platform    string                  `json:"platform"`
	Supported   bool                    `json:"supported"`
	GlobalRoot  string                  `json:"global_root"`
	Installed   bool                    `json:"installed"`
	Version     string                  `json:"version,omitempty"`
	Agents      int                     `json:"agents"`
	Commands    int                     `json:"commands"`
	Templates   int                     `json:"templates"`
	Descriptors agents.DescriptorCounts `json:"descriptors"`
	Servers     []string                `json:"servers,omitempty"`
	Project     ProjectStatus           `json:"project"`
	Healthy     bool                    `json:"healthy"`
	Missing     []string                `json:"missing,omitempty"`
	Suggestions []string                `json:"suggestions,omitempty"`
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
