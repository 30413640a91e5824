// Package session drives a therapy session: an Idle/Running/Paused
// state machine that fires stimulus ticks on a cancellable schedule,
// tracks elapsed time across pause/resume without drift, and routes
// every generated event through the signal chain.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sonitus/sonitus/internal/chain"
	"github.com/sonitus/sonitus/internal/device"
	"github.com/sonitus/sonitus/internal/params"
	"github.com/sonitus/sonitus/internal/synth"
)

// Phase is the sequencer's lifecycle state.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status is the snapshot pushed to display collaborators on every tick
// and every sampler pass.
type Status struct {
	Phase   Phase
	Elapsed time.Duration
	Stimuli uint64
}

// Display receives session progress and per-tick errors. It owns how
// they render; the sequencer never formats output itself.
type Display interface {
	Update(Status)
	Report(err error)
}

// Provider supplies the live therapy parameters. The sequencer re-reads
// a snapshot before each tick and never caches stale values.
type Provider interface {
	Snapshot() params.Parameters
}

// Speaker is the spoken-phrase collaborator. It reports acceptance as a
// boolean; there is no completion callback.
type Speaker interface {
	Speak(text string) bool
}

// SpeakerFunc adapts a function to the Speaker interface.
type SpeakerFunc func(string) bool

func (f SpeakerFunc) Speak(text string) bool { return f(text) }

const samplerPeriod = 100 * time.Millisecond

// Sequencer owns the session clock, the stimulus counter, and the one
// pending tick timer. All transitions and ticks serialize on its mutex,
// so no two ticks ever run concurrently.
type Sequencer struct {
	out      device.Output
	chain    *chain.Chain
	provider Provider
	speaker  Speaker
	display  Display

	mu          sync.Mutex
	phase       Phase
	clockStart  time.Time
	accumulated time.Duration
	stimuli     uint64

	// gen invalidates outstanding timers: a tick armed before a
	// transition carries the old generation and refuses to fire.
	gen         uint64
	timer       *time.Timer
	samplerStop chan struct{}

	now    func() time.Time
	sample time.Duration
}

// New builds a sequencer around its collaborators. The device is opened
// lazily by Start.
func New(out device.Output, provider Provider, speaker Speaker, display Display) *Sequencer {
	return &Sequencer{
		out:      out,
		chain:    chain.New(out, synth.SampleRate),
		provider: provider,
		speaker:  speaker,
		display:  display,
		phase:    Idle,
		now:      time.Now,
		sample:   samplerPeriod,
	}
}

// Chain exposes the signal chain for direct parameter nudging between
// ticks (same-loop updates are safe per the concurrency model).
func (s *Sequencer) Chain() *chain.Chain { return s.chain }

// Phase returns the current lifecycle state.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Stimuli returns the number of stimuli attempted this session.
func (s *Sequencer) Stimuli() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stimuli
}

// Elapsed returns the session clock reading: wall time while Running,
// the frozen accumulator while Paused or Idle.
func (s *Sequencer) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsedLocked()
}

func (s *Sequencer) elapsedLocked() time.Duration {
	if s.phase == Running {
		return s.now().Sub(s.clockStart)
	}
	return s.accumulated
}

// Start transitions Idle → Running: initializes the output device,
// restores the session clock from the accumulator, and fires tick #1
// immediately.
func (s *Sequencer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Idle {
		return fmt.Errorf("start: session is %s", s.phase)
	}
	if err := s.out.Initialize(); err != nil {
		return err
	}
	s.clockStart = s.now().Add(-s.accumulated)
	s.phase = Running
	s.gen++
	s.startSamplerLocked()
	s.armLocked(0)
	return nil
}

// Pause transitions Running → Paused: freezes the elapsed accumulator,
// cancels the pending tick, and suspends the device clock.
func (s *Sequencer) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Running {
		return fmt.Errorf("pause: session is %s", s.phase)
	}
	s.accumulated = s.now().Sub(s.clockStart)
	s.cancelLocked()
	s.phase = Paused
	if err := s.out.Suspend(); err != nil {
		return err
	}
	s.notifyLocked()
	return nil
}

// Resume transitions Paused → Running. The stimulus cadence restarts
// from zero rather than resuming mid-interval: the next tick fires
// immediately. The session clock picks up exactly where Pause froze it.
func (s *Sequencer) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Paused {
		return fmt.Errorf("resume: session is %s", s.phase)
	}
	if err := s.out.Resume(); err != nil {
		s.phase = Idle
		s.accumulated = 0
		s.stimuli = 0
		return err
	}
	s.clockStart = s.now().Add(-s.accumulated)
	s.phase = Running
	s.gen++
	s.startSamplerLocked()
	s.armLocked(0)
	return nil
}

// Stop transitions Running|Paused → Idle: cancels any pending tick,
// resets the clock and counter, and tears down then reinitializes the
// output device before returning, so a rapid Stop→Start never sees a
// half-closed device. Stop on an Idle session is a no-op.
func (s *Sequencer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Idle {
		return nil
	}
	s.cancelLocked()
	s.phase = Idle
	s.accumulated = 0
	s.stimuli = 0
	s.notifyLocked()
	if err := s.out.Close(); err != nil {
		return err
	}
	return s.out.Initialize()
}

// cancelLocked invalidates the pending tick and stops the sampler.
// Bumping the generation makes cancellation atomic with the state
// transition: a timer that already fired and is waiting on the mutex
// sees a stale generation and returns without doing anything.
func (s *Sequencer) cancelLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.samplerStop != nil {
		close(s.samplerStop)
		s.samplerStop = nil
	}
}

func (s *Sequencer) armLocked(delay time.Duration) {
	gen := s.gen
	s.timer = time.AfterFunc(delay, func() { s.tick(gen) })
}

// tick is one scheduled unit of work: read parameters, push them into
// the chain, synthesize, route, count, reschedule. Per-tick errors are
// reported to the display and never stop the schedule; device errors
// abort the session.
func (s *Sequencer) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Running || gen != s.gen {
		return
	}

	p := s.provider.Snapshot()
	s.chain.SetPan(p.PanPosition)
	s.chain.SetVolume(p.MasterVolume)
	if err := s.chain.SetLowpass(p.LowpassCutoffHz); err != nil {
		s.display.Report(err)
	}
	if err := s.chain.SetHighpass(p.HighpassCutoffHz); err != nil {
		s.display.Report(err)
	}

	duration := time.Duration(p.DurationSeconds * float64(time.Second))
	ev, err := synth.Generate(p.Technique, p.StimulusFrequencyHz, duration, p.SpokenText)
	switch {
	case err != nil:
		// An unknown technique still counts as an attempted stimulus;
		// a bad numeric parameter produces silence without counting.
		if errors.Is(err, synth.ErrInvalidTechnique) {
			s.stimuli++
		}
		s.display.Report(err)

	case ev.Technique == synth.SpokenPhrase:
		// Fire-and-forget: the utterance must not hold the mutex or
		// stretch the cadence, and its completion is never awaited.
		if strings.TrimSpace(ev.Text) != "" {
			go s.speaker.Speak(ev.Text)
		}
		s.stimuli++

	default:
		if err := s.chain.Route(ev); err != nil {
			s.display.Report(err)
			s.cancelLocked()
			s.phase = Idle
			s.accumulated = 0
			s.stimuli = 0
			s.notifyLocked()
			return
		}
		s.stimuli++
	}

	s.notifyLocked()
	s.armLocked(time.Duration((p.DurationSeconds + p.IntervalSeconds) * float64(time.Second)))
}

// startSamplerLocked runs the elapsed-time sampler: a periodic pass
// that republishes the status while Running. It performs no audio or
// scheduling work.
func (s *Sequencer) startSamplerLocked() {
	stop := make(chan struct{})
	s.samplerStop = stop
	go func() {
		ticker := time.NewTicker(s.sample)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.phase == Running {
					s.notifyLocked()
				}
				s.mu.Unlock()
			}
		}
	}()
}

func (s *Sequencer) notifyLocked() {
	s.display.Update(Status{
		Phase:   s.phase,
		Elapsed: s.elapsedLocked(),
		Stimuli: s.stimuli,
	})
}
