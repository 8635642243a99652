package fileutil

import (
	"fmt"
	"os"
	"strings"
)

// Markers delimit the region of a shared file that rapids owns. Text outside
// the markers belongs to the user and is preserved on every rewrite.
type Markers struct {
	Start string
	End   string
}

var (
	MarkdownMarkers = Markers{Start: "<!-- rapids:managed:start -->", End: "<!-- rapids:managed:end -->"}
	ShellMarkers    = Markers{Start: "# >>> rapids helpers >>>", End: "# <<< rapids helpers <<<"}
)

func (m Markers) Wrap(body string) string {
	return fmt.Sprintf("%s\n%s\n%s", m.Start, strings.TrimSpace(body), m.End)
}

// UpsertManagedFile replaces (or appends) the managed block inside path and
// reports whether the file changed.
func UpsertManagedFile(path string, markers Markers, body string) (bool, error) {
	existing := ""
	if data, err := os.ReadFile(path); err == nil {
		existing = string(data)
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	updated := UpsertManagedBlock(existing, markers.Start, markers.End, markers.Wrap(body))
	return WriteIfChangedTracked(path, []byte(updated))
}

func UpsertManagedBlock(existing, startMarker, endMarker, managedContent string) string {
	if existing == "" {
		return managedContent + "\n"
	}

	start := strings.Index(existing, startMarker)
	end := strings.Index(existing, endMarker)
	if start >= 0 && end >= start {
		end += len(endMarker)
		updated := existing[:start] + managedContent + existing[end:]
		return EnsureTrailingNewline(updated)
	}

	base := EnsureTrailingNewline(existing)
	return base + "\n" + managedContent + "\n"
}

func ContainsManagedBlock(path string, markers Markers) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	text := string(data)
	return strings.Contains(text, markers.Start) && strings.Contains(text, markers.End)
}
