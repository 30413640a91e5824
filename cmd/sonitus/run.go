package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/sonitus/sonitus/internal/device"
	"github.com/sonitus/sonitus/internal/params"
	"github.com/sonitus/sonitus/internal/session"
	"github.com/sonitus/sonitus/internal/sessionlog"
	"github.com/sonitus/sonitus/internal/speech"
	"github.com/sonitus/sonitus/internal/status"
	"github.com/sonitus/sonitus/internal/synth"
)

// runSession wires the collaborators together and drives the sequencer
// from single-key terminal input until the user quits.
func runSession(opts options) error {
	store, err := openStore(opts)
	if err != nil {
		return err
	}
	defer store.Close()

	var out device.Output
	if opts.silent {
		out = device.NewHeadless()
	} else {
		out = device.NewOtoOutput(synth.SampleRate)
	}

	displays := multiDisplay{newTermDisplay()}
	displays = append(displays, &logDisplay{store: store, technique: opts.params.Technique.String()})
	if opts.mqttBroker != "" {
		topic := opts.mqttTopic
		if topic == "" {
			topic = "sonitus/status"
		}
		displays = append(displays, &status.Publisher{
			Broker:   opts.mqttBroker,
			ClientID: "sonitus-" + strconv.Itoa(os.Getpid()),
			Topic:    topic,
		})
	}

	live := params.NewLive(opts.params)
	seq := session.New(out, live, session.SpeakerFunc(speech.Speak), displays)

	logTransition := func(kind string) {
		_ = store.Log(sessionlog.Entry{
			Kind:      kind,
			Technique: opts.params.Technique.String(),
			ElapsedMs: seq.Elapsed().Milliseconds(),
			Stimuli:   seq.Stimuli(),
		})
	}

	if err := seq.Start(); err != nil {
		return err
	}
	logTransition(sessionlog.KindStart)

	fmt.Printf("session started: %s at %g Hz, %gs on / %gs off  (p=pause r=resume s=stop q=quit)\r\n",
		opts.params.Technique, opts.params.StimulusFrequencyHz,
		opts.params.DurationSeconds, opts.params.IntervalSeconds)

	err = keyLoop(seq, logTransition)
	fmt.Printf("\r\n")
	return err
}

// keyLoop reads single keys in raw mode and maps them to transitions.
// Without a terminal it simply blocks until the process is interrupted.
func keyLoop(seq *session.Sequencer, logTransition func(string)) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Headless invocation: run until interrupted.
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt)
		<-sig
		if seq.Phase() != session.Idle {
			logTransition(sessionlog.KindStop)
		}
		return seq.Stop()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("terminal raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return nil
		}
		quit, err := handleKey(buf[0], seq, logTransition)
		if quit || err != nil {
			return err
		}
	}
}

// handleKey maps a single keypress to a sequencer transition and
// reports whether the loop should exit.
func handleKey(key byte, seq *session.Sequencer, logTransition func(string)) (quit bool, err error) {
	switch key {
	case 'p':
		if err := seq.Pause(); err == nil {
			logTransition(sessionlog.KindPause)
		}
	case 'r':
		var kind string
		switch seq.Phase() {
		case session.Paused:
			kind = sessionlog.KindResume
			err = seq.Resume()
		case session.Idle:
			kind = sessionlog.KindStart
			err = seq.Start()
		default:
			return false, nil
		}
		if err != nil {
			return false, err
		}
		logTransition(kind)
	case 's':
		if seq.Phase() != session.Idle {
			logTransition(sessionlog.KindStop)
		}
		if err := seq.Stop(); err != nil {
			return false, err
		}
	case 'q', 3: // q or Ctrl-C
		if seq.Phase() != session.Idle {
			logTransition(sessionlog.KindStop)
		}
		return true, seq.Stop()
	}
	return false, nil
}

func openStore(opts options) (sessionlog.Store, error) {
	if opts.noLog {
		return sessionlog.NopStore{}, nil
	}
	store, err := sessionlog.NewSQLiteStore(sessionlog.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("opening session log: %w", err)
	}
	return store, nil
}

// multiDisplay fans status out to every attached display collaborator.
type multiDisplay []session.Display

func (m multiDisplay) Update(st session.Status) {
	for _, d := range m {
		d.Update(st)
	}
}

func (m multiDisplay) Report(err error) {
	for _, d := range m {
		d.Report(err)
	}
}

// termDisplay renders a single status line in place.
type termDisplay struct {
	mu sync.Mutex
}

func newTermDisplay() *termDisplay {
	return &termDisplay{}
}

func (d *termDisplay) Update(st session.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	elapsed := st.Elapsed.Round(100 * time.Millisecond)
	fmt.Printf("\r[%-7s] %7.1fs  stimuli: %-6d", st.Phase, elapsed.Seconds(), st.Stimuli)
}

func (d *termDisplay) Report(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Printf("\r\ntick skipped: %v\r\n", err)
}

// logDisplay appends a stimulus entry each time the counter advances.
// It rides the same display fan-out as the terminal, keeping the core
// free of persistence concerns.
type logDisplay struct {
	store     sessionlog.Store
	technique string

	mu   sync.Mutex
	last uint64
}

func (d *logDisplay) Update(st session.Status) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st.Stimuli > d.last {
		_ = d.store.Log(sessionlog.Entry{
			Kind:      sessionlog.KindStimulus,
			Technique: d.technique,
			ElapsedMs: st.Elapsed.Milliseconds(),
			Stimuli:   st.Stimuli,
		})
	}
	d.last = st.Stimuli
}

func (d *logDisplay) Report(error) {}
