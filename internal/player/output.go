package player

import (
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// blockFrames is the unit of real-time pacing when no device pulls audio.
const blockFrames = 512

var blockInterval = time.Duration(blockFrames) * time.Second / playbackSampleRate

// output pulls PCM from a reader at playback pace.
type output interface {
	Play()
	Pause()
	Close()
}

type outputFactory func(r io.Reader) (output, error)

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

// initOto opens the process-wide audio context. A short buffer keeps the
// analysis close to what is audible.
func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   playbackSampleRate,
			ChannelCount: playbackChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   60 * time.Millisecond,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

type otoOutput struct {
	p *oto.Player
}

func newOtoOutput(r io.Reader) (output, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, err
	}
	p := ctx.NewPlayer(r)
	p.SetVolume(1)
	return &otoOutput{p: p}, nil
}

func (o *otoOutput) Play()  { o.p.Play() }
func (o *otoOutput) Pause() { o.p.Pause() }
func (o *otoOutput) Close() {
	o.p.Pause()
	o.p.Close()
}

// clockOutput stands in for a sound card: it reads one block per block
// interval while playing and throws the samples away.
type clockOutput struct {
	r io.Reader

	mu      sync.Mutex
	playing bool

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newClockOutput(r io.Reader) (output, error) {
	c := &clockOutput{r: r, stop: make(chan struct{}), done: make(chan struct{})}
	go c.run()
	return c, nil
}

func (c *clockOutput) run() {
	defer close(c.done)
	buf := make([]byte, blockFrames*playbackFrameSize)
	ticker := time.NewTicker(blockInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
		}
		c.mu.Lock()
		playing := c.playing
		c.mu.Unlock()
		if !playing {
			continue
		}
		if _, err := io.ReadFull(c.r, buf); err != nil {
			c.Pause()
		}
	}
}

func (c *clockOutput) Play() {
	c.mu.Lock()
	c.playing = true
	c.mu.Unlock()
}

func (c *clockOutput) Pause() {
	c.mu.Lock()
	c.playing = false
	c.mu.Unlock()
}

// Close stops the clock and waits until it no longer reads.
func (c *clockOutput) Close() {
	c.once.Do(func() { close(c.stop) })
	<-c.done
}
