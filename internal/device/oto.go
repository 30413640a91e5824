package device

import (
	"bytes"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// The oto context is process-global and cannot be torn down, so it is
// created once and shared across Close/Initialize cycles. Close settles
// for stopping every live player, which leaves the context clean for
// the next session.
var (
	otoCtx     *oto.Context
	otoOnce    sync.Once
	otoInitErr error
)

func getContext(sampleRate int) (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 2,
			Format:       oto.FormatSignedInt16LE,
		}
		var readyChan chan struct{}
		otoCtx, readyChan, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-readyChan
		}
	})
	return otoCtx, otoInitErr
}

// OtoOutput plays 44100 Hz stereo 16-bit signed LE PCM through a shared
// oto context.
type OtoOutput struct {
	sampleRate int

	mu      sync.Mutex
	players map[*oto.Player]struct{}
}

// NewOtoOutput returns an uninitialized oto-backed output. The device
// itself is opened lazily by Initialize.
func NewOtoOutput(sampleRate int) *OtoOutput {
	return &OtoOutput{
		sampleRate: sampleRate,
		players:    make(map[*oto.Player]struct{}),
	}
}

func (o *OtoOutput) Initialize() error {
	if _, err := getContext(o.sampleRate); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Play starts playback of one PCM buffer without blocking the caller.
// A drain goroutine closes the player once it runs dry.
func (o *OtoOutput) Play(pcm []byte) error {
	ctx, err := getContext(o.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	player := ctx.NewPlayer(bytes.NewReader(pcm))
	o.mu.Lock()
	o.players[player] = struct{}{}
	o.mu.Unlock()
	player.Play()

	go func() {
		for player.IsPlaying() {
			time.Sleep(5 * time.Millisecond)
		}
		o.mu.Lock()
		delete(o.players, player)
		o.mu.Unlock()
		player.Close()
	}()
	return nil
}

func (o *OtoOutput) Suspend() error {
	ctx, err := getContext(o.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ctx.Suspend()
}

func (o *OtoOutput) Resume() error {
	ctx, err := getContext(o.sampleRate)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ctx.Resume()
}

// Close stops and releases every player still attached to the context.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	players := make([]*oto.Player, 0, len(o.players))
	for p := range o.players {
		players = append(players, p)
	}
	o.players = make(map[*oto.Player]struct{})
	o.mu.Unlock()

	for _, p := range players {
		p.Pause()
		p.Close()
	}
	return nil
}
