package utils

import (
	"regexp"
	"strings"
)

var dsnPasswordRegex = regexp.MustCompile(`(:)([^:@]+)(@)`)

// MaskDSN hides the password of a connection string before it is logged.
// URL-shaped DSNs are masked up to the last '@' of the authority; anything
// else falls back to a best-effort regex.
func MaskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if scheme, rest, ok := strings.Cut(dsn, "://"); ok {
		authority, tail, _ := strings.Cut(rest, "/")
		at := strings.LastIndex(authority, "@")
		if at < 0 {
			return dsn
		}
		user, _, hasPass := strings.Cut(authority[:at], ":")
		if !hasPass {
			return dsn
		}
		masked := scheme + "://" + user + ":***@" + authority[at+1:]
		if tail != "" || strings.Contains(rest, "/") {
			masked += "/" + tail
		}
		return masked
	}
	return dsnPasswordRegex.ReplaceAllString(dsn, ":***@")
}
