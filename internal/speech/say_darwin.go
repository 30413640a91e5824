//go:build darwin

package speech

import (
	"fmt"
	"os/exec"
)

func say(text string) error {
	cmd := exec.Command("say", text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("speech failed: %w\n%s", err, out)
	}
	return nil
}
