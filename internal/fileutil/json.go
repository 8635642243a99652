package fileutil

import (
	"encoding/json"
	"io"
	"os"
)

// PrintJSON writes value to stdout as indented JSON.
func PrintJSON(value any) error {
	return writeJSON(os.Stdout, value)
}

// writeJSON leaves <, > and & unescaped; prompts and shell snippets print
// as typed.
func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(value)
}
