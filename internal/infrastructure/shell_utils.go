package infrastructure

import "strings"

// shellMeta holds the characters that force quoting when a command line is
// shown to a user. yt-dlp selectors ("[ext=mp4]") and templates ("%(id)s")
// contain several of them.
const shellMeta = " \t\n\r'\"$`\\!*?[](){}|;<>&~#%"

// ShellEscape quotes s so it can be pasted into a POSIX shell. Only used for
// logging; exec never goes through a shell.
func ShellEscape(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, shellMeta) {
		return s
	}
	// close the quote, emit a double-quoted ', reopen
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// ShellEscapeCommand renders binary and args as one copy-pasteable line
func ShellEscapeCommand(binary string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, ShellEscape(binary))
	for _, arg := range args {
		parts = append(parts, ShellEscape(arg))
	}
	return strings.Join(parts, " ")
}
