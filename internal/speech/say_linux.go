//go:build linux

package speech

import (
	"fmt"
	"os/exec"
)

func say(text string) error {
	for _, bin := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(bin); err == nil {
			cmd := exec.Command(path, text)
			if out, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("speech failed: %w\n%s", err, out)
			}
			return nil
		}
	}
	return fmt.Errorf("speech not available: install espeak-ng or espeak")
}
