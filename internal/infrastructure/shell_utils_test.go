package infrastructure

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellEscape(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain flag", "--no-overwrites", "--no-overwrites"},
		{"plain path", "/tmp/simple/path", "/tmp/simple/path"},
		{"empty", "", "''"},
		{"spaces", "/tmp/path with spaces", "'/tmp/path with spaces'"},
		{"format selector", "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]", "'bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]'"},
		{"output template", "/tmp/out/%(title)s [%(id)s]-best.%(ext)s", "'/tmp/out/%(title)s [%(id)s]-best.%(ext)s'"},
		{"url with query", "https://x/watch?v=abc&list=PL1", "'https://x/watch?v=abc&list=PL1'"},
		{"dollar and backtick", "/tmp/$HOME`id`", "'/tmp/$HOME`id`'"},
		{"single quote", "/tmp/it's a test", `'/tmp/it'"'"'s a test'`},
		{"newline", "a\nb", "'a\nb'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShellEscape(tt.input))
		})
	}
}

func TestShellEscapeCommand(t *testing.T) {
	line := ShellEscapeCommand("/opt/my tools/yt-dlp", "-f", "bestaudio/best", "--retry-sleep", "http:1", "--", "https://x/watch?v=abc")
	assert.Equal(t, "'/opt/my tools/yt-dlp' -f bestaudio/best --retry-sleep http:1 -- 'https://x/watch?v=abc'", line)
}

func TestShellEscapeCommand_RoundTripsThroughShell(t *testing.T) {
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("no POSIX shell available")
	}

	args := []string{"it's", "%(title)s [%(id)s].%(ext)s", "a b", "$HOME"}
	line := ShellEscapeCommand("printf", append([]string{`%s\n`}, args...)...)

	out, err := exec.Command(sh, "-c", line).Output()
	require.NoError(t, err)
	assert.Equal(t, args, strings.Split(strings.TrimSuffix(string(out), "\n"), "\n"))
}
