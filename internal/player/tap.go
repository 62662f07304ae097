package player

import (
	"encoding/binary"
	"io"
	"sync"
	"sync/atomic"
)

// tap sits between the decoder and the audio output. Every block the output
// pulls is also mixed to mono and handed to the sink, so analysis sees
// exactly what is being played.
type tap struct {
	src  io.Reader
	sink Sink
	feed *sync.Mutex

	pos   atomic.Int64
	ended atomic.Bool
	carry []byte
	mono  []float32
}

func newTap(src io.Reader, sink Sink, feed *sync.Mutex) *tap {
	return &tap{src: src, sink: sink, feed: feed}
}

func (t *tap) Read(p []byte) (int, error) {
	n, err := t.src.Read(p)
	if n > 0 {
		t.pos.Add(int64(n))
		t.forward(p[:n])
	}
	if err == io.EOF {
		t.ended.Store(true)
	}
	return n, err
}

func (t *tap) forward(b []byte) {
	if len(t.carry) > 0 {
		b = append(t.carry, b...)
	}
	frames := len(b) / playbackFrameSize
	if cap(t.mono) < frames {
		t.mono = make([]float32, frames)
	}
	mono := t.mono[:frames]
	for i := range mono {
		l := int16(binary.LittleEndian.Uint16(b[i*playbackFrameSize:]))
		r := int16(binary.LittleEndian.Uint16(b[i*playbackFrameSize+2:]))
		mono[i] = (float32(l) + float32(r)) / (2 * 32768)
	}
	t.carry = append([]byte(nil), b[frames*playbackFrameSize:]...)

	if frames == 0 || t.sink == nil {
		return
	}
	t.feed.Lock()
	t.sink.IngestMain(mono)
	t.feed.Unlock()
}

// rewind puts the tap back at the start of the track.
func (t *tap) rewind() {
	t.pos.Store(0)
	t.ended.Store(false)
	t.carry = nil
}
