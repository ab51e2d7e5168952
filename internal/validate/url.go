package validate

import (
	"net"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	MaxURLLength  = 2048
	MaxPathLength = 512
)

// DangerousChars are refused in any URL or path even though yt-dlp is never
// run through a shell.
const DangerousChars = "\n\r\t\x00;&|$`()<>"

var privatePrefixes = []string{"192.168.", "10.", "172.16."}

// ContainsDangerous reports the first forbidden character in s, if any.
func ContainsDangerous(s string) (rune, bool) {
	if i := strings.IndexAny(s, DangerousChars); i >= 0 {
		r, _ := utf8.DecodeRuneInString(s[i:])
		return r, true
	}
	return 0, false
}

// URL checks an untrusted download URL. Rules are applied in order and the
// first failure is returned.
func URL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return reject("url", "URL is required")
	}
	if utf8.RuneCountInString(raw) > MaxURLLength {
		return reject("url", "URL exceeds maximum length of %d characters", MaxURLLength)
	}
	if r, found := ContainsDangerous(raw); found {
		return reject("url", "URL contains forbidden character %q", r)
	}
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return reject("url", "URL is malformed")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return reject("url", "scheme %q is not allowed, use http or https", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return reject("url", "URL has no host")
	}
	if blockedHost(host) {
		return reject("url", "host %q points to a local or private network", host)
	}
	return nil
}

func blockedHost(host string) bool {
	host = strings.TrimSuffix(host, ".")
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	addr, _, _ := strings.Cut(host, "%")
	if ip := net.ParseIP(addr); ip != nil {
		return ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() ||
			ip.IsUnspecified() || ip.IsPrivate()
	}
	// Resolvers accept decimal, octal, hex and short IPv4 forms such as
	// 2130706433 or 127.1. Only canonical dotted quads are allowed.
	return numericHost(addr)
}

// numericHost reports whether every dot-separated label is a decimal or 0x
// hex number.
func numericHost(host string) bool {
	if host == "" {
		return false
	}
	for _, label := range strings.Split(host, ".") {
		digits, hex := label, false
		if rest, ok := strings.CutPrefix(strings.ToLower(label), "0x"); ok {
			digits, hex = rest, true
		}
		if digits == "" && !hex {
			return false
		}
		for _, c := range digits {
			isDigit := c >= '0' && c <= '9'
			isHex := c >= 'a' && c <= 'f'
			if !isDigit && !(hex && isHex) {
				return false
			}
		}
	}
	return true
}
