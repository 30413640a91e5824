package device

import "sync"

// Headless is an Output that discards audio while recording every call,
// for tests and --silent sessions.
type Headless struct {
	mu sync.Mutex

	InitErr   error // returned by Initialize when set
	ResumeErr error // returned by Resume when set

	initialized int
	closed      int
	suspended   bool
	played      [][]byte
}

func NewHeadless() *Headless {
	return &Headless{}
}

func (h *Headless) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.InitErr != nil {
		return h.InitErr
	}
	h.initialized++
	return nil
}

func (h *Headless) Play(pcm []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	h.played = append(h.played, buf)
	return nil
}

func (h *Headless) Suspend() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.suspended = true
	return nil
}

func (h *Headless) Resume() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ResumeErr != nil {
		return h.ResumeErr
	}
	h.suspended = false
	return nil
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	h.suspended = false
	return nil
}

// PlayCount returns how many buffers have been routed to the device.
func (h *Headless) PlayCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.played)
}

// Played returns a copy of the routed PCM buffers in play order.
func (h *Headless) Played() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.played))
	copy(out, h.played)
	return out
}

// Suspended reports whether the device clock is currently suspended.
func (h *Headless) Suspended() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.suspended
}

// InitCount returns how many times Initialize has succeeded.
func (h *Headless) InitCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

// CloseCount returns how many times Close has been called.
func (h *Headless) CloseCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
