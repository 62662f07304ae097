package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
)

// Metadata is what the status line shows about a track.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// String is "Artist - Title", or just the title.
func (m Metadata) String() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " - " + m.Title
}

// ReadMetadata reads ID3v2 tags when the file carries them and falls back
// to the file name.
func ReadMetadata(path string) Metadata {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".mp3" || ext == ".wav" || ext == ".aif" || ext == ".aiff" {
		if tag, err := id3v2.Open(path, id3v2.Options{Parse: true}); err == nil {
			m := Metadata{
				Title:  strings.TrimSpace(tag.Title()),
				Artist: strings.TrimSpace(tag.Artist()),
				Album:  strings.TrimSpace(tag.Album()),
			}
			tag.Close()
			if m.Title != "" {
				return m
			}
		}
	}
	return Metadata{Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
}
