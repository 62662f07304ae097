package player

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Track is an opened, decodable file. Opening is the slow part of a load
// and may run on any goroutine.
type Track struct {
	Path string
	Meta Metadata

	file    *os.File
	dec     audioDecoder
	cleanup func()
	once    sync.Once
}

// Open decodes the header of path and prepares a 48 kHz stereo stream.
func Open(path string) (*Track, error) {
	src := path
	var cleanup func()
	if needsLocalFFmpegTranscode(path) {
		wav, done, err := transcodeToTempWAV(path)
		if err != nil {
			return nil, err
		}
		src, cleanup = wav, done
	}
	fail := func(err error) (*Track, error) {
		if cleanup != nil {
			cleanup()
		}
		return nil, err
	}

	f, err := os.Open(src)
	if err != nil {
		return fail(fmt.Errorf("opening %s: %w", filepath.Base(path), err))
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return fail(err)
	}
	stream, err := conform(dec)
	if err != nil {
		f.Close()
		return fail(err)
	}
	return &Track{
		Path:    path,
		Meta:    ReadMetadata(path),
		file:    f,
		dec:     stream,
		cleanup: cleanup,
	}, nil
}

// Name is the file name shown in status messages.
func (t *Track) Name() string { return filepath.Base(t.Path) }

// Duration is the playing time of the conformed stream.
func (t *Track) Duration() time.Duration {
	return time.Duration(float64(t.dec.Length()) / bytesPerSecond * float64(time.Second))
}

// Close releases the file and any temporary transcode.
func (t *Track) Close() {
	t.once.Do(func() {
		if t.file != nil {
			t.file.Close()
		}
		if t.cleanup != nil {
			t.cleanup()
		}
	})
}
