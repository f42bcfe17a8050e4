package sandbox

import (
	"regexp"
	"strings"
)

// flagWithValue matches -Xvalue, --name=value and --name:value.
var flagWithValue = regexp.MustCompile(`(?s)^--?[a-zA-Z][-a-zA-Z0-9_]*[=:]?(.+)$`)

// PathCandidate returns the filesystem path a token may refer to. Flags yield
// only an embedded path (-I/usr/include, --prefix=/opt); other tokens are
// candidates when they contain a slash or start with a tilde.
func PathCandidate(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	if strings.HasPrefix(token, "-") {
		if m := flagWithValue.FindStringSubmatch(token); m != nil {
			if looksLikePath(m[1]) {
				return m[1], true
			}
			return "", false
		}
	}
	if looksLikePath(token) {
		return token, true
	}
	return "", false
}

func looksLikePath(s string) bool {
	return strings.Contains(s, "/") || strings.HasPrefix(s, "~")
}
