package media

import (
	"bufio"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// DroppedPaths splits text pasted into the terminal into candidate file
// paths. Terminals paste a dragged file as its path, quoted, shell-escaped
// or as a file:// URI, one per line or separated by spaces.
func DroppedPaths(text string) []string {
	var out []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, splitPasted(line)...)
	}
	return out
}

// splitPasted tokenizes one line the way a shell would for quotes and
// backslash escapes.
func splitPasted(line string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
		esc   bool
		has   bool
	)
	flush := func() {
		if has {
			out = append(out, normalizePath(cur.String()))
		}
		cur.Reset()
		has = false
	}
	for _, r := range line {
		switch {
		case esc:
			cur.WriteRune(r)
			esc, has = false, true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\\' && os.PathSeparator != '\\':
			esc = true
		case r == '\'' || r == '"':
			quote, has = r, true
		case r == ' ' || r == '\t':
			flush()
		default:
			cur.WriteRune(r)
			has = true
		}
	}
	flush()
	return out
}

func normalizePath(p string) string {
	if strings.HasPrefix(p, "file://") {
		if u, err := url.Parse(p); err == nil && u.Path != "" {
			p = u.Path
		}
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, p[2:])
		}
	}
	return p
}

// FilterPlayableLocalPaths keeps only existing, non-directory, supported media files.
func FilterPlayableLocalPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			continue
		}
		if !IsSupportedExt(filepath.Ext(p)) {
			continue
		}
		abs, err := filepath.Abs(p)
		if err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

// DroppedAudio returns the first playable file in pasted text.
func DroppedAudio(text string) (string, bool) {
	paths := FilterPlayableLocalPaths(DroppedPaths(text))
	if len(paths) == 0 {
		return "", false
	}
	return paths[0], true
}
