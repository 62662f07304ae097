// Package capture records live input devices and feeds them to the router
// as sidechain buses.
package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/panelviz/internal/router"
)

// MaxBindings is the number of sidechain slots.
const MaxBindings = 3

const framesPerBuffer = 512

// Sink receives sidechain blocks. router.Router implements it.
type Sink interface {
	SetSidechainRate(id router.PanelID, sampleRate float64)
	IngestSidechain(id router.PanelID, block []float32)
	ClearSidechain(id router.PanelID)
}

// Binding routes one capture device to one slot.
type Binding struct {
	Slot   router.PanelID
	Device string
}

func (b Binding) String() string { return b.Slot.String() + "=" + b.Device }

// ParseBinding reads "slot=device", e.g. "top=USB Audio".
func ParseBinding(s string) (Binding, error) {
	slot, dev, ok := strings.Cut(s, "=")
	if !ok {
		return Binding{}, fmt.Errorf("sidechain %q: expected slot=device", s)
	}
	id, err := router.ParseSlot(strings.TrimSpace(slot))
	if err != nil {
		return Binding{}, err
	}
	return Binding{Slot: id, Device: strings.TrimSpace(dev)}, nil
}

// Validate rejects bindings that cannot be opened together.
func Validate(bindings []Binding) error {
	if len(bindings) > MaxBindings {
		return fmt.Errorf("at most %d sidechains, got %d", MaxBindings, len(bindings))
	}
	seen := make(map[router.PanelID]bool, len(bindings))
	for _, b := range bindings {
		if b.Slot == router.Main {
			return errors.New("the main slot always follows the player")
		}
		if seen[b.Slot] {
			return fmt.Errorf("slot %s is bound twice", b.Slot)
		}
		seen[b.Slot] = true
	}
	return nil
}

// stream is one open input bound to a slot.
type stream struct {
	slot     router.PanelID
	channels int
	sink     Sink
	pa       *portaudio.Stream
	mono     []float32
}

func (s *stream) process(in []float32) {
	s.mono = mixdown(s.mono, in, s.channels)
	s.sink.IngestSidechain(s.slot, s.mono)
}

// mixdown averages interleaved channels into dst, reusing its storage.
func mixdown(dst, in []float32, channels int) []float32 {
	if channels <= 1 {
		return append(dst[:0], in...)
	}
	frames := len(in) / channels
	dst = dst[:0]
	for i := 0; i < frames; i++ {
		var sum float32
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			sum += in[base+ch]
		}
		dst = append(dst, sum/float32(channels))
	}
	return dst
}

// Manager owns every open sidechain stream.
type Manager struct {
	log     logrus.FieldLogger
	sink    Sink
	streams []*stream
	held    bool
}

// Start opens one input stream per binding. Streams that fail to open are
// logged and skipped; the error lists them.
func Start(bindings []Binding, sink Sink, log logrus.FieldLogger) (*Manager, error) {
	if err := Validate(bindings); err != nil {
		return nil, err
	}
	m := &Manager{log: log, sink: sink}
	if len(bindings) == 0 {
		return m, nil
	}
	if err := acquireHost(); err != nil {
		return m, err
	}
	m.held = true

	var failed []string
	for _, b := range bindings {
		s, err := m.open(b)
		if err != nil {
			log.WithError(err).WithField("sidechain", b.String()).Warn("sidechain unavailable")
			failed = append(failed, b.String())
			continue
		}
		m.streams = append(m.streams, s)
	}
	if len(failed) > 0 {
		return m, fmt.Errorf("could not open sidechain %s", strings.Join(failed, ", "))
	}
	return m, nil
}

func (m *Manager) open(b Binding) (*stream, error) {
	dev, err := findDevice(b.Device)
	if err != nil {
		return nil, err
	}
	channels := dev.MaxInputChannels
	if channels > 2 {
		channels = 2
	}
	s := &stream{slot: b.Slot, channels: channels, sink: m.sink}
	m.sink.SetSidechainRate(b.Slot, dev.DefaultSampleRate)

	pa, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      dev.DefaultSampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, s.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if err := pa.Start(); err != nil {
		_ = pa.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	s.pa = pa
	m.log.WithFields(logrus.Fields{
		"slot":        b.Slot.String(),
		"device":      dev.Name,
		"sample_rate": dev.DefaultSampleRate,
		"channels":    channels,
	}).Info("sidechain started")
	return s, nil
}

// Slots lists the slots with an open stream.
func (m *Manager) Slots() []router.PanelID {
	out := make([]router.PanelID, 0, len(m.streams))
	for _, s := range m.streams {
		out = append(out, s.slot)
	}
	return out
}

// Close stops every stream and hands the slots back to the main bus.
func (m *Manager) Close() error {
	var errs []error
	for _, s := range m.streams {
		if err := s.pa.Stop(); err != nil && !isInvalidStreamState(err) {
			errs = append(errs, err)
		}
		if err := s.pa.Close(); err != nil {
			errs = append(errs, err)
		}
		m.sink.ClearSidechain(s.slot)
	}
	m.streams = nil
	if m.held {
		m.held = false
		releaseHost()
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// isInvalidStreamState checks for stopping an already stopped stream.
func isInvalidStreamState(err error) bool {
	return strings.Contains(err.Error(), "PaErrorCode -9986")
}
