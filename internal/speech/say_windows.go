//go:build windows

package speech

import (
	"fmt"
	"os/exec"

	"github.com/sonitus/sonitus/internal/shell"
)

func say(text string) error {
	script := fmt.Sprintf(`Add-Type -AssemblyName System.Speech; `+
		`$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; `+
		`$s.Rate = 0; `+
		`$s.Speak('%s')`, shell.EscapePowerShell(text))
	cmd := exec.Command("powershell", "-NoProfile", "-Command", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech failed: %w\n%s", err, out)
	}
	return nil
}
