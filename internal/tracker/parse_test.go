package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
		found    bool
	}{
		{"bracketed in destination", "[download] Destination: /tmp/out/My Song [AAAAAAAAAAA]-best.mp4", "AAAAAAAAAAA", true},
		{"extractor prefix", "ERROR: [youtube] CCCCCCCCCCC: Private video. Sign in if you've been granted access", "CCCCCCCCCCC", true},
		{"watch url", "ERROR: unable to download https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1", "dQw4w9WgXcQ", true},
		{"short url", "failed https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"bare token", "[download] dQw4w9WgXcQ: has already been recorded in the archive", "dQw4w9WgXcQ", true},
		{"plain words only", "[download] Destination: nothing here", "", false},
		{"capitalized eleven letter word", "Unavailable video", "", false},
		{"hyphenated word", "[download] Destination: /tmp/out/custom-name.mp4", "", false},
		{"no id", "ERROR: Unable to connect to host", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found := ExtractID(tt.line)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestExtractID_PrefersBracketOverTitleToken(t *testing.T) {
	// the title contains an 11-character token that is not the identifier
	line := "[download] Destination: /tmp/out/Mix_2024-v2 [BBBBBBBBBBB]-720p.webm"
	id, found := ExtractID(line)
	assert.True(t, found)
	assert.Equal(t, "BBBBBBBBBBB", id)
}

func TestTitleFromPath(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/tmp/out/My Song [AAAAAAAAAAA]-best.mp4", "My Song"},
		{"/tmp/out/Clip [AAAAAAAAAAA]-1080p.webm", "Clip"},
		{"/tmp/out/Clip [AAAAAAAAAAA]-lowest.mp4", "Clip"},
		{"/tmp/out/Track [AAAAAAAAAAA].mp3", "Track"},
		{"/tmp/out/Track [AAAAAAAAAAA].f251.webm", "Track"},
		{"relative.mp4", "relative"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromPath(tt.path))
		})
	}
}

func TestExtractPath(t *testing.T) {
	path, ok := ExtractPath("[download] Destination: /tmp/out/a [AAAAAAAAAAA]-best.mp4")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/out/a [AAAAAAAAAAA]-best.mp4", path)

	path, ok = ExtractPath(`[Merger] Merging formats into "/tmp/out/b [BBBBBBBBBBB]-best.mp4"`)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/out/b [BBBBBBBBBBB]-best.mp4", path)

	path, ok = ExtractPath("[download] /tmp/out/c [CCCCCCCCCCC]-best.mp4 has already been downloaded")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/out/c [CCCCCCCCCCC]-best.mp4", path)

	_, ok = ExtractPath("[youtube] AAAAAAAAAAA: Downloading webpage")
	assert.False(t, ok)
}

func TestLineClassifiers(t *testing.T) {
	assert.True(t, IsDestinationLine("[download] Destination: /tmp/x.mp4"))
	assert.True(t, IsDestinationLine(`[Merger] Merging formats into "/tmp/x.mp4"`))
	assert.False(t, IsDestinationLine("[download]  42.0% of 10MiB"))

	assert.True(t, IsSkipLine("[download] /tmp/x.mp4 has already been downloaded"))
	assert.True(t, IsSkipLine("[download] AAAAAAAAAAA: has already been recorded in the archive"))
	assert.True(t, IsSkipLine("[download] Skipping AAAAAAAAAAA"))
	assert.False(t, IsSkipLine("[download] Destination: /tmp/x.mp4"))

	assert.True(t, IsBenignWarning("WARNING: [youtube] AAAAAAAAAAA: Some formats may be missing; SABR streaming is forced"))
	assert.False(t, IsBenignWarning("WARNING: unable to extract uploader"))
}

func TestItemURL(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/watch?v=AAAAAAAAAAA", ItemURL("AAAAAAAAAAA"))
	assert.Empty(t, ItemURL("short"))
}
