package rpc

import (
	"net/http"
	"net/url"
	"strings"
)

type originPolicy struct {
	allowAll      bool
	allowLoopback bool
	allowed       map[string]struct{}
}

func newOriginPolicy(origins []string, allowLoopback bool) originPolicy {
	p := originPolicy{allowLoopback: allowLoopback, allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch origin {
		case "":
		case "*":
			p.allowAll = true
		default:
			p.allowed[strings.ToLower(origin)] = struct{}{}
		}
	}
	return p
}

// check is used as the upgrader's CheckOrigin. Non-browser clients send no
// Origin and are always accepted.
func (p originPolicy) check(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" || p.allowAll {
		return true
	}
	if _, ok := p.allowed[strings.ToLower(strings.TrimRight(origin, "/"))]; ok {
		return true
	}
	if origin == "null" || !p.allowLoopback {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch strings.TrimSpace(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
