// Package device abstracts the audio output device so the session core
// can run against real hardware (oto) or a headless sink in tests and
// silent mode.
package device

import "errors"

// ErrUnavailable reports that the output device cannot be created or
// resumed. It is fatal to the session that owns the device.
var ErrUnavailable = errors.New("audio device unavailable")

// Output is the output-device collaborator contract. Initialize must be
// idempotent; Close must leave the device re-initializable.
type Output interface {
	Initialize() error
	Play(pcm []byte) error
	Suspend() error
	Resume() error
	Close() error
}
