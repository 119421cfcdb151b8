// Package security sets defensive response headers.
package security

import (
	"net/http"
	"strconv"
	"strings"
)

// Policy lists the headers sent with every response.
type Policy struct {
	// CSP directives, joined with "; ".
	CSP []string
	// Static maps header names to values. Empty values are skipped.
	Static map[string]string
	// HSTSMaxAge in seconds; 0 disables HSTS. Only sent over TLS.
	HSTSMaxAge     int
	HSTSSubdomains bool
}

// DefaultPolicy allows scripts from unpkg for htmx and nothing else
// off-origin.
func DefaultPolicy() Policy {
	return Policy{
		CSP: []string{
			"default-src 'self'",
			"script-src 'self' https://unpkg.com",
			"style-src 'self'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		Static: map[string]string{
			"X-Frame-Options":              "DENY",
			"X-Content-Type-Options":       "nosniff",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
		HSTSMaxAge:     365 * 24 * 60 * 60,
		HSTSSubdomains: true,
	}
}

func (p Policy) header() http.Header {
	h := make(http.Header, len(p.Static)+1)
	for name, value := range p.Static {
		if value != "" {
			h.Set(name, value)
		}
	}
	if len(p.CSP) > 0 {
		h.Set("Content-Security-Policy", strings.Join(p.CSP, "; "))
	}
	return h
}

func (p Policy) hsts() string {
	if p.HSTSMaxAge <= 0 {
		return ""
	}
	v := "max-age=" + strconv.Itoa(p.HSTSMaxAge)
	if p.HSTSSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// Headers applies p to every response.
func Headers(p Policy) func(http.Handler) http.Handler {
	fixed, hsts := p.header(), p.hsts()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, values := range fixed {
				h[name] = values
			}
			if r.TLS != nil && hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore marks responses as uncacheable; the form pages carry user input.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Static sets a public max-age on static assets.
func Static(maxAgeSeconds int) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.Itoa(maxAgeSeconds)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAgeSeconds > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
