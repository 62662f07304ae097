package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder is implemented by all format-specific decoders. Every decoder
// produces interleaved signed 16-bit little-endian PCM at its native rate
// and channel count.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".aif", ".aiff":
		return newAIFFDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// pcm16 is the bookkeeping shared by the converting decoders: converted
// bytes not yet handed out, the output position and the output length.
type pcm16 struct {
	pending  []byte
	pos      int64
	total    int64
	rate     int
	channels int
}

func (s *pcm16) Length() int64     { return s.total }
func (s *pcm16) SampleRate() int   { return s.rate }
func (s *pcm16) ChannelCount() int { return s.channels }

func (s *pcm16) frameSize() int64 { return int64(s.channels) * 2 }

// drain hands out leftovers from the previous conversion.
func (s *pcm16) drain(p []byte) (int, bool) {
	if len(s.pending) == 0 {
		return 0, false
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	s.pos += int64(n)
	return n, true
}

// emit copies a freshly converted chunk into p and keeps the rest.
func (s *pcm16) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		s.pending = raw[n:]
	}
	s.pos += int64(n)
	return n
}

// target resolves a seek request to a clamped output byte offset on a
// frame boundary.
func (s *pcm16) target(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = s.pos + offset
	case io.SeekEnd:
		next = s.total + offset
	default:
		return s.pos, fmt.Errorf("invalid seek whence: %d", whence)
	}
	if next < 0 {
		next = 0
	}
	if next > s.total {
		next = s.total
	}
	return next - next%s.frameSize(), nil
}

func (s *pcm16) moved(pos int64) {
	s.pending = nil
	s.pos = pos
}

func putSample(dst []byte, v int) {
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	binary.LittleEndian.PutUint16(dst, uint16(int16(v)))
}

// to16 rescales a signed sample of the given bit depth to 16 bits.
func to16(v, bits int) int {
	switch {
	case bits > 16:
		return v >> (bits - 16)
	case bits < 16:
		return v << (16 - bits)
	}
	return v
}

// --- MP3 ---

type mp3Decoder struct {
	dec *mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{dec: dec}, nil
}

func (d *mp3Decoder) Read(p []byte) (int, error) { return d.dec.Read(p) }
func (d *mp3Decoder) Seek(offset int64, whence int) (int64, error) {
	return d.dec.Seek(offset, whence)
}
func (d *mp3Decoder) Length() int64     { return d.dec.Length() }
func (d *mp3Decoder) SampleRate() int   { return d.dec.SampleRate() }
func (d *mp3Decoder) ChannelCount() int { return 2 }

// --- WAV ---

type wavDecoder struct {
	pcm16
	file     *os.File
	pcmStart int64
	srcBits  int
	srcFrame int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}
	channels := int(dec.NumChans)
	bits := int(dec.BitDepth)
	if channels < 1 || bits == 0 || bits%8 != 0 {
		return nil, fmt.Errorf("unsupported WAV layout: %d channels, %d bits", channels, bits)
	}
	srcFrame := int64(channels * bits / 8)

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}
	frames := dec.PCMLen() / srcFrame
	return &wavDecoder{
		pcm16:    pcm16{total: frames * int64(channels) * 2, rate: int(dec.SampleRate), channels: channels},
		file:     f,
		pcmStart: pcmStart,
		srcBits:  bits,
		srcFrame: srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	if d.pos >= d.total {
		return 0, io.EOF
	}
	width := d.srcBits / 8
	samples := len(p) / 2
	if samples == 0 {
		samples = 1
	}
	if left := int((d.total - d.pos) / 2); samples > left {
		samples = left
	}
	src := make([]byte, samples*width)
	n, err := io.ReadFull(d.file, src)
	samples = n / width
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		b := src[i*width:]
		var v int
		switch d.srcBits {
		case 8:
			v = (int(b[0]) - 128) << 8
		case 16:
			v = int(int16(binary.LittleEndian.Uint16(b)))
		case 24:
			s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			if s&0x800000 != 0 {
				s |= ^0xFFFFFF
			}
			v = int(s >> 8)
		case 32:
			v = int(int32(binary.LittleEndian.Uint32(b)) >> 16)
		}
		putSample(raw[i*2:], v)
	}
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	next, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	frame := next / d.frameSize()
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}

// --- AIFF ---

// aiffDecoder holds the whole file in memory; go-audio/aiff only exposes
// full-buffer decoding.
type aiffDecoder struct {
	pcm16
	data []int
	bits int
}

func newAIFFDecoder(f *os.File) (*aiffDecoder, error) {
	dec := aiff.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid AIFF file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding AIFF: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("AIFF file has no channel layout")
	}
	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	bits := buf.SourceBitDepth
	if bits == 0 {
		bits = 16
	}
	return &aiffDecoder{
		pcm16: pcm16{total: int64(frames * channels * 2), rate: buf.Format.SampleRate, channels: channels},
		data:  buf.Data[:frames*channels],
		bits:  bits,
	}, nil
}

func (d *aiffDecoder) Read(p []byte) (int, error) {
	start := int(d.pos / 2)
	if start >= len(d.data) {
		return 0, io.EOF
	}
	samples := len(p) / 2
	if samples == 0 {
		return 0, nil
	}
	if start+samples > len(d.data) {
		samples = len(d.data) - start
	}
	for i := 0; i < samples; i++ {
		putSample(p[i*2:], to16(d.data[start+i], d.bits))
	}
	d.pos += int64(samples * 2)
	return samples * 2, nil
}

func (d *aiffDecoder) Seek(offset int64, whence int) (int64, error) {
	next, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}

// --- FLAC ---

type flacDecoder struct {
	pcm16
	stream *flac.Stream
	bps    int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		pcm16:  pcm16{total: int64(info.NSamples) * int64(channels) * 2, rate: int(info.SampleRate), channels: channels},
		stream: stream,
		bps:    int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}
	n := int(frame.Subframes[0].NSamples)
	raw := make([]byte, n*d.channels*2)
	for i := 0; i < n; i++ {
		for ch := 0; ch < d.channels; ch++ {
			putSample(raw[(i*d.channels+ch)*2:], to16(int(frame.Subframes[ch].Samples[i]), d.bps))
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	next, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if _, err := d.stream.Seek(uint64(next / d.frameSize())); err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}

// --- OGG Vorbis ---

type oggDecoder struct {
	pcm16
	reader *oggvorbis.Reader
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		pcm16:  pcm16{total: reader.Length() * int64(channels) * 2, rate: reader.SampleRate(), channels: channels},
		reader: reader,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}
	samples := make([]float32, len(p)/2)
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		putSample(raw[i*2:], int(s*32767))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	next, err := d.target(offset, whence)
	if err != nil {
		return d.pos, err
	}
	if err := d.reader.SetPosition(next / d.frameSize()); err != nil {
		return d.pos, err
	}
	d.moved(next)
	return next, nil
}
