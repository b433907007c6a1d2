// Package endpoint normalizes and validates the base URLs of remote backends.
package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// Rule describes one backend's base URL policy.
type Rule struct {
	// Name is the env variable the URL came from; used in error messages.
	Name         string
	Default      string
	DefaultHosts []string
}

func Normalize(baseURL, def string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = def
	}
	return strings.TrimRight(baseURL, "/")
}

// Validate accepts only absolute https URLs without userinfo, query or
// fragment whose host is in allowedHosts (or the rule's defaults when empty).
func (r Rule) Validate(baseURL string, allowedHosts []string) error {
	baseURL = Normalize(baseURL, r.Default)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", r.Name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", r.Name, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", r.Name, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", r.Name, baseURL)
	}
	if !strings.EqualFold(u.Scheme, "https") {
		return fmt.Errorf("invalid %s %q: https is required", r.Name, baseURL)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", r.Name, baseURL)
	}

	allowed := hostSet(allowedHosts)
	if len(allowed) == 0 {
		allowed = hostSet(r.DefaultHosts)
	}
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not allowed", r.Name, baseURL, host)
	}
	return nil
}

func hostSet(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}

// SplitHosts parses a comma separated host list such as OPENROUTER_ALLOWED_HOSTS.
func SplitHosts(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
