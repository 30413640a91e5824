// Package speech is the spoken-phrase collaborator: fire-and-forget
// text-to-speech through whatever engine the host OS provides. Rate and
// pitch stay at the engine's neutral defaults.
package speech

import (
	"fmt"
	"os"
	"strings"
)

// Speak pronounces text and reports whether it was accepted. Blank or
// whitespace-only text is not spoken and returns false; a missing TTS
// engine also returns false (with a diagnostic on stderr). Completion
// of the utterance is not awaited by callers.
func Speak(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if err := say(text); err != nil {
		fmt.Fprintf(os.Stderr, "speech: %v\n", err)
		return false
	}
	return true
}
