package media

import "strings"

var audioExts = map[string]bool{
	".wav":  true,
	".aif":  true,
	".aiff": true,
	".mp3":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
}

// IsSupportedExt returns true if the extension is a loadable audio format.
func IsSupportedExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// SupportedFormats is the hint shown while nothing is loaded.
func SupportedFormats() string {
	return "WAV, AIFF, MP3, FLAC, OGG, M4A"
}

// SupportedExtsList returns a human-readable list of loadable extensions.
func SupportedExtsList() string {
	return ".wav, .aif, .aiff, .mp3, .flac, .ogg, .m4a"
}
