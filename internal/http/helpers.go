package http

import (
	"net"
	"net/http"
	"strconv"
	"strings"
)

// formatEuros formats cents as a Euro currency string (e.g., "€12.34").
func formatEuros(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	rem := strconv.FormatInt(cents%100, 10)
	if len(rem) == 1 {
		rem = "0" + rem
	}
	s := strconv.FormatInt(cents/100, 10) + "." + rem
	if neg {
		return "-€" + s
	}
	return "€" + s
}

// sanitizeInput removes control characters except tab, newline and carriage
// return. Whitespace is kept: the form decides what blank means.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != 9 && r != 10 && r != 13) || r == 127 {
			return -1
		}
		return r
	}, s)
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection's address without port.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		if ip := net.ParseIP(real); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
