package media

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDroppedPathsUnquotesAndUnescapes(t *testing.T) {
	got := DroppedPaths("'/music/My Song.wav' /tmp/a\\ b.mp3\nfile:///srv/x%20y.flac\n\n\"/q/z.ogg\"")
	want := []string{"/music/My Song.wav", "/tmp/a b.mp3", "/srv/x y.flac", "/q/z.ogg"}
	if len(got) != len(want) {
		t.Fatalf("expected %d paths, got %q", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("path %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDroppedAudioPicksFirstPlayableFile(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	song := filepath.Join(dir, "song one.wav")
	for _, p := range []string{notes, song} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	missing := filepath.Join(dir, "gone.mp3")

	got, ok := DroppedAudio("'" + notes + "' '" + missing + "' '" + song + "'")
	if !ok || got != song {
		t.Fatalf("expected %q, got %q (ok=%v)", song, got, ok)
	}
	if _, ok := DroppedAudio("hello world"); ok {
		t.Fatal("expected plain text not to load anything")
	}
	if _, ok := DroppedAudio(dir); ok {
		t.Fatal("expected a directory not to load")
	}
}
