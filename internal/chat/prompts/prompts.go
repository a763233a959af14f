// Package prompts holds the prompt text shipped with the binary.
package prompts

import (
	_ "embed"
	"strings"
)

//go:embed SYSTEM.md
var system string

// System returns the system prompt given to the language model provider.
func System() string {
	return strings.TrimSpace(system)
}
