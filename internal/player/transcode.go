package player

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	localFFmpegLookPath = exec.LookPath
	localFFmpegRun      = func(name string, args ...string) ([]byte, error) {
		cmd := exec.Command(name, args...)
		cmd.Stdin = nil
		return cmd.CombinedOutput()
	}
	localMkdirTemp = os.MkdirTemp
	localRemoveAll = os.RemoveAll
	localSleep     = time.Sleep
)

// needsLocalFFmpegTranscode reports whether path is a container none of the
// Go decoders read. Those go through ffmpeg into a temporary WAV.
func needsLocalFFmpegTranscode(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".m4a")
}

// transcodeToTempWAV converts path to 16-bit 48 kHz stereo WAV in a fresh
// temp dir. The returned cleanup removes the dir.
func transcodeToTempWAV(path string) (string, func(), error) {
	ffmpeg, err := localFFmpegLookPath("ffmpeg")
	if err != nil {
		return "", nil, fmt.Errorf("ffmpeg not found (required for .m4a playback)")
	}

	tmpDir, err := localMkdirTemp("", "panelviz-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() {
		cleanupTempDirWithRetry(tmpDir)
	}

	outPath := filepath.Join(tmpDir, "audio.wav")
	output, err := localFFmpegRun(ffmpeg, "-v", "error", "-y", "-i", path,
		"-vn", "-acodec", "pcm_s16le", "-ar", "48000", "-ac", "2", outPath)
	if err != nil {
		cleanup()
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return "", nil, fmt.Errorf("ffmpeg could not convert %s: %w", filepath.Base(path), err)
		}
		return "", nil, fmt.Errorf("ffmpeg could not convert %s: %w: %s", filepath.Base(path), err, msg)
	}

	return outPath, cleanup, nil
}

func cleanupTempDirWithRetry(dir string) {
	for attempt := 0; attempt < 5; attempt++ {
		if err := localRemoveAll(dir); err == nil || !isRetryableCleanupAttempt(attempt) {
			return
		}
		localSleep(75 * time.Millisecond)
	}
}

func isRetryableCleanupAttempt(attempt int) bool {
	return attempt < 4
}
