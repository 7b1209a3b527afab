package tracker

import (
	"path/filepath"
	"regexp"
	"strings"
)

// IDLength is the width of a platform item identifier
const IDLength = 11

// ItemURLTemplate rebuilds an item URL from its identifier
const ItemURLTemplate = "https://www.youtube.com/watch?v="

var (
	// "Title [AAAAAAAAAAA]-best.mp4" as written by the output template
	bracketIDPattern = regexp.MustCompile(`\[([A-Za-z0-9_-]{11})\]`)

	// "[youtube] AAAAAAAAAAA: Downloading webpage"
	extractorIDPattern = regexp.MustCompile(`\[[A-Za-z0-9:_-]+\]\s+([A-Za-z0-9_-]{11}):`)

	// "watch?v=AAAAAAAAAAA", "youtu.be/AAAAAAAAAAA", "/shorts/AAAAAAAAAAA"
	urlIDPattern = regexp.MustCompile(`(?:[?&]v=|youtu\.be/|/shorts/|/embed/|/live/)([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)

	tokenPattern = regexp.MustCompile(`[A-Za-z0-9_-]+`)

	// "Destination", "unavailable", "custom-name" share the identifier shape
	plainWord = regexp.MustCompile(`^[A-Z]?[a-z]+(?:[-_][a-z]+)*$`)

	destinationPattern = regexp.MustCompile(`Destination:\s*(.+)$`)
	mergerPattern      = regexp.MustCompile(`Merging formats into "(.+)"`)
	alreadyPattern     = regexp.MustCompile(`\[download\]\s+(.+?)\s+has already been downloaded`)

	qualitySuffixPattern = regexp.MustCompile(`(?i)-(best|lowest|\d{3,4}p)$`)
)

var benignWarnings = []string{
	"sabr streaming",
	"some web client https formats have been skipped",
	"some tv client https formats have been skipped",
}

// ExtractID finds an item identifier in a backend line. It prefers the
// structured positions yt-dlp uses and falls back to any standalone
// 11-character token that does not read as a plain word.
func ExtractID(line string) (string, bool) {
	for _, m := range bracketIDPattern.FindAllStringSubmatch(line, -1) {
		if !plainWord.MatchString(m[1]) {
			return m[1], true
		}
	}
	for _, m := range extractorIDPattern.FindAllStringSubmatch(line, -1) {
		if !plainWord.MatchString(m[1]) {
			return m[1], true
		}
	}
	if m := urlIDPattern.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	for _, tok := range tokenPattern.FindAllString(line, -1) {
		if len(tok) == IDLength && !plainWord.MatchString(tok) {
			return tok, true
		}
	}
	return "", false
}

// ExtractPath returns the file path a destination, merge or
// already-downloaded line refers to
func ExtractPath(line string) (string, bool) {
	if m := mergerPattern.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := destinationPattern.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if m := alreadyPattern.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// TitleFromPath derives a display title from an output file path by removing
// the extension, the quality suffix and the bracketed identifier
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	// audio extraction leaves e.g. "title.f251" before the real extension
	if ext := filepath.Ext(name); len(ext) > 1 && ext[1] == 'f' && isDigits(ext[2:]) {
		name = strings.TrimSuffix(name, ext)
	}
	name = qualitySuffixPattern.ReplaceAllString(name, "")
	name = bracketIDPattern.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// ExtractTitle returns a best-effort title for a line, or "" when none
func ExtractTitle(line string) string {
	path, ok := ExtractPath(line)
	if !ok {
		return ""
	}
	return TitleFromPath(path)
}

// IsDestinationLine reports whether an info line announces a new file write
func IsDestinationLine(line string) bool {
	return destinationPattern.MatchString(line) || mergerPattern.MatchString(line)
}

// IsSkipLine reports whether an info line says the item is already present
func IsSkipLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "has already been downloaded") ||
		strings.Contains(lower, "already been recorded in the archive") ||
		strings.Contains(lower, "skipping")
}

// IsBenignWarning reports whether a warning is a known harmless backend advisory
func IsBenignWarning(line string) bool {
	lower := strings.ToLower(line)
	for _, w := range benignWarnings {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ItemURL rebuilds the item URL for an identifier
func ItemURL(id string) string {
	if len(id) != IDLength {
		return ""
	}
	return ItemURLTemplate + id
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
