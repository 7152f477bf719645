// Package redact provides the logging-safe transforms the Authorization
// Engine applies before emitting a username, client IP, or request header
// to a log line: usernames are hashed, IPs are partially masked, and a
// fixed set of sensitive headers is blanked outright.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strconv"
	"strings"
)

const usernameHashPrefixLen = 12

// HeaderNames lists the request headers that must never reach a log line
// verbatim: bearer tokens, session cookies, and Cognito fallback context
// headers that can identify a tenant.
var HeaderNames = []string{
	"Authorization",
	"Cookie",
	"X-Authorization",
	"X-User-Pool-Id",
	"X-Client-Id",
}

// HashUsername returns the first 12 hex characters of the SHA-256 digest
// of username, so logs can correlate repeated requests from the same
// principal without recording who they are.
func HashUsername(username string) string {
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])[:usernameHashPrefixLen]
}

// AnonymizeIP masks the last IPv4 octet or the last IPv6 segment of addr,
// returning addr unchanged if it does not parse as an IP.
func AnonymizeIP(addr string) string {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}

	ip := net.ParseIP(host)
	if ip == nil {
		return addr
	}

	if v4 := ip.To4(); v4 != nil {
		return strings.Join([]string{
			strconv.Itoa(int(v4[0])), strconv.Itoa(int(v4[1])), strconv.Itoa(int(v4[2])), "0",
		}, ".")
	}

	segments := strings.Split(ip.String(), ":")
	segments[len(segments)-1] = "0"
	return strings.Join(segments, ":")
}

// MaskToken returns a short, non-reversible stand-in for a bearer token or
// other secret value, safe to interpolate into a log message.
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return "sha256:" + hex.EncodeToString(sum[:])[:8]
}

// MaskHeaders returns a shallow copy of h with every header named in
// HeaderNames replaced by a fixed redaction marker, leaving all other
// headers untouched for debugging.
func MaskHeaders(h http.Header) http.Header {
	out := h.Clone()
	for _, name := range HeaderNames {
		if out.Get(name) != "" {
			out.Set(name, "[REDACTED]")
		}
	}
	return out
}
