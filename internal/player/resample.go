package player

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	playbackSampleRate = 48000
	playbackChannels   = 2
	playbackFrameSize  = playbackChannels * 2
	bytesPerSecond     = playbackSampleRate * playbackFrameSize
)

// conformed presents any decoder as a 48 kHz stereo s16le stream. Mono is
// duplicated to both channels and other rates are linearly interpolated.
type conformed struct {
	src         audioDecoder
	passthrough bool
	srcRate     int
	srcChannels int

	totalSrc int64
	totalOut int64
	outPos   int64
	// phase/playbackSampleRate is the current source frame.
	phase int64

	window []int16 // stereo frames starting at base
	base   int64
	carry  []byte
	chunk  []byte
	out    []byte
	spill  []byte
}

func conform(src audioDecoder) (audioDecoder, error) {
	rate, channels := src.SampleRate(), src.ChannelCount()
	if rate <= 0 {
		return nil, fmt.Errorf("unsupported sample rate: %d", rate)
	}
	if channels < 1 || channels > playbackChannels {
		return nil, fmt.Errorf("unsupported channel count: %d", channels)
	}
	if rate == playbackSampleRate && channels == playbackChannels {
		return src, nil
	}
	totalSrc := src.Length() / int64(channels*2)
	totalOut := totalSrc * playbackSampleRate / int64(rate)
	if totalSrc > 0 && totalOut == 0 {
		totalOut = 1
	}
	return &conformed{
		src:         src,
		srcRate:     rate,
		srcChannels: channels,
		totalSrc:    totalSrc,
		totalOut:    totalOut,
	}, nil
}

func (c *conformed) Length() int64     { return c.totalOut * playbackFrameSize }
func (c *conformed) SampleRate() int   { return playbackSampleRate }
func (c *conformed) ChannelCount() int { return playbackChannels }

func (c *conformed) Read(p []byte) (int, error) {
	if len(c.spill) > 0 {
		n := copy(p, c.spill)
		c.spill = c.spill[n:]
		return n, nil
	}
	if c.outPos >= c.totalOut {
		return 0, io.EOF
	}

	frames := (len(p) + playbackFrameSize - 1) / playbackFrameSize
	if frames == 0 {
		frames = 1
	}
	if cap(c.out) < frames*playbackFrameSize {
		c.out = make([]byte, frames*playbackFrameSize)
	}
	out := c.out[:0]

	var readErr error
	for i := 0; i < frames && c.outPos < c.totalOut; i++ {
		idx := c.phase / playbackSampleRate
		c.compact(idx)
		l0, r0, err := c.frame(idx)
		if err != nil {
			readErr = err
			break
		}
		l1, r1, err := c.frame(idx + 1)
		if err != nil {
			l1, r1 = l0, r0
		}
		frac := c.phase % playbackSampleRate
		out = binary.LittleEndian.AppendUint16(out, uint16(lerp16(l0, l1, frac)))
		out = binary.LittleEndian.AppendUint16(out, uint16(lerp16(r0, r1, frac)))
		c.outPos++
		c.phase += int64(c.srcRate)
	}

	if len(out) == 0 {
		if readErr == nil {
			readErr = io.EOF
		}
		return 0, readErr
	}
	n := copy(p, out)
	if n < len(out) {
		c.spill = append(c.spill[:0], out[n:]...)
	}
	return n, nil
}

// frame returns source frame idx, decoding more of the source as needed.
func (c *conformed) frame(idx int64) (int16, int16, error) {
	if idx >= c.totalSrc {
		return 0, 0, io.EOF
	}
	for idx >= c.base+int64(len(c.window)/2) {
		if err := c.fill(); err != nil {
			return 0, 0, err
		}
	}
	off := int(idx-c.base) * 2
	return c.window[off], c.window[off+1], nil
}

// compact drops frames before idx.
func (c *conformed) compact(idx int64) {
	drop := idx - c.base
	if drop <= 0 {
		return
	}
	have := int64(len(c.window) / 2)
	if drop > have {
		drop = have
	}
	n := copy(c.window, c.window[drop*2:])
	c.window = c.window[:n]
	c.base += drop
}

func (c *conformed) fill() error {
	const chunkFrames = 2048
	srcFrame := c.srcChannels * 2
	if cap(c.chunk) < chunkFrames*srcFrame {
		c.chunk = make([]byte, chunkFrames*srcFrame)
	}
	n, err := c.src.Read(c.chunk[:chunkFrames*srcFrame])
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return err
	}
	data := append(c.carry, c.chunk[:n]...)
	whole := len(data) / srcFrame * srcFrame
	for off := 0; off < whole; off += srcFrame {
		l := int16(binary.LittleEndian.Uint16(data[off:]))
		r := l
		if c.srcChannels == 2 {
			r = int16(binary.LittleEndian.Uint16(data[off+2:]))
		}
		c.window = append(c.window, l, r)
	}
	c.carry = append(c.carry[:0:0], data[whole:]...)
	return nil
}

func (c *conformed) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = c.outPos*playbackFrameSize + offset
	case io.SeekEnd:
		next = c.Length() + offset
	default:
		return c.outPos * playbackFrameSize, fmt.Errorf("invalid seek whence: %d", whence)
	}
	if next < 0 {
		next = 0
	}
	if next > c.Length() {
		next = c.Length()
	}
	outFrame := next / playbackFrameSize
	srcFrame := outFrame * int64(c.srcRate) / playbackSampleRate
	if _, err := c.src.Seek(srcFrame*int64(c.srcChannels*2), io.SeekStart); err != nil {
		return c.outPos * playbackFrameSize, err
	}
	c.outPos = outFrame
	c.phase = outFrame * int64(c.srcRate)
	c.base = srcFrame
	c.window = c.window[:0]
	c.carry = nil
	c.spill = nil
	return outFrame * playbackFrameSize, nil
}

func lerp16(a, b int16, frac int64) int16 {
	if frac == 0 || a == b {
		return a
	}
	diff := int64(b) - int64(a)
	return int16(int64(a) + (diff*frac+playbackSampleRate/2)/playbackSampleRate)
}
