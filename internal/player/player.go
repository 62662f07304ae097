// Package player is the playback transport: it decodes a file, plays it
// through the sound card and feeds every played block to the analysis sink.
package player

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/panelviz/internal/util"
)

// Sink receives the main bus. IngestMain gets mono blocks while playing;
// Idle is called once per block while nothing plays.
type Sink interface {
	IngestMain(block []float32)
	Idle()
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Player) { p.log = l }
}

// WithOnLoad registers a hook that runs after every successful Load.
func WithOnLoad(fn func()) Option {
	return func(p *Player) { p.onLoad = fn }
}

// WithoutAudioDevice paces playback with a clock instead of a sound card.
func WithoutAudioDevice() Option {
	return func(p *Player) { p.newOutput = newClockOutput }
}

var errClosed = errors.New("player is closed")

// Player plays one track at a time.
type Player struct {
	sink      Sink
	log       logrus.FieldLogger
	onLoad    func()
	newOutput outputFactory

	// feed keeps the sink single-writer between the tap and the idle clock.
	feed sync.Mutex

	mu      sync.Mutex
	track   *Track
	tap     *tap
	out     output
	playing bool
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// New creates a player and starts its idle clock.
func New(sink Sink, opts ...Option) *Player {
	p := &Player{
		sink: sink,
		log:  util.Discard(),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.newOutput == nil {
		p.newOutput = p.deviceOrClock
	}
	go p.idleLoop()
	return p
}

func (p *Player) deviceOrClock(r io.Reader) (output, error) {
	out, err := newOtoOutput(r)
	if err == nil {
		return out, nil
	}
	p.log.WithError(err).Warn("audio device unavailable, playing silently")
	p.newOutput = newClockOutput
	return newClockOutput(r)
}

// idleLoop feeds silence while nothing plays and notices the end of the
// track.
func (p *Player) idleLoop() {
	defer close(p.done)
	ticker := time.NewTicker(blockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if p.playing && p.tap != nil && p.tap.ended.Load() {
			p.out.Pause()
			p.playing = false
			p.log.WithField("path", p.track.Path).Debug("end of track")
		}
		playing := p.playing
		p.mu.Unlock()

		if !playing && p.sink != nil {
			p.feed.Lock()
			p.sink.Idle()
			p.feed.Unlock()
		}
	}
}

// Load makes t the current track, stopped at the start. The previous track
// is closed. On error t is closed too.
func (p *Player) Load(t *Track) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		t.Close()
		return errClosed
	}
	tp := newTap(t.dec, p.sink, &p.feed)
	out, err := p.newOutput(tp)
	if err != nil {
		t.Close()
		return fmt.Errorf("opening audio output: %w", err)
	}
	p.unloadLocked()
	p.track, p.tap, p.out, p.playing = t, tp, out, false

	p.log.WithFields(logrus.Fields{
		"path":     t.Path,
		"duration": t.Duration().String(),
	}).Info("track loaded")
	if p.onLoad != nil {
		p.onLoad()
	}
	return nil
}

func (p *Player) unloadLocked() {
	if p.out != nil {
		p.out.Close()
	}
	if p.track != nil {
		p.track.Close()
	}
	p.track, p.tap, p.out, p.playing = nil, nil, nil, false
}

// IsLoaded reports whether a track is ready to play.
func (p *Player) IsLoaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track != nil
}

// SetPlaying starts or pauses playback. Playing after the end of the track
// starts it again from the top.
func (p *Player) SetPlaying(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.track == nil || on == p.playing {
		return
	}
	if !on {
		p.out.Pause()
		p.playing = false
		return
	}
	if p.tap.ended.Load() {
		if err := p.rewindLocked(); err != nil {
			p.log.WithError(err).WithField("path", p.track.Path).Error("restart failed")
			return
		}
	}
	p.out.Play()
	p.playing = true
}

func (p *Player) rewindLocked() error {
	p.out.Close()
	if _, err := p.track.dec.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to start: %w", err)
	}
	p.tap.rewind()
	out, err := p.newOutput(p.tap)
	if err != nil {
		return err
	}
	p.out = out
	return nil
}

// IsPlaying reports whether audio is running.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Position is how far into the track playback has read.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tap == nil {
		return 0
	}
	return time.Duration(float64(p.tap.pos.Load()) / bytesPerSecond * float64(time.Second))
}

// Duration is the length of the current track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return 0
	}
	return p.track.Duration()
}

// Track returns the loaded track, or nil.
func (p *Player) Track() *Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// Close stops playback and the idle clock.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.unloadLocked()
	p.mu.Unlock()

	close(p.stop)
	<-p.done
}

// Metadata describes the loaded track, or is empty.
func (p *Player) Metadata() Metadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.track == nil {
		return Metadata{}
	}
	return p.track.Meta
}
