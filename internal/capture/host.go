package capture

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

var (
	paInitialize = portaudio.Initialize
	paTerminate  = portaudio.Terminate
)

// host counts the users of PortAudio. The library comes up for the first
// and goes down with the last.
var host struct {
	mu   sync.Mutex
	refs int
}

func acquireHost() error {
	host.mu.Lock()
	defer host.mu.Unlock()
	if host.refs == 0 {
		if err := paInitialize(); err != nil {
			return fmt.Errorf("initializing portaudio: %w", err)
		}
	}
	host.refs++
	return nil
}

func releaseHost() {
	host.mu.Lock()
	defer host.mu.Unlock()
	if host.refs == 0 {
		return
	}
	host.refs--
	if host.refs == 0 {
		_ = paTerminate()
	}
}
