package services

import (
	"net/url"
	"regexp"
	"strings"
)

// Quick check findings
const (
	FindingInsecureConnection = "Insecure connection (HTTP)"
	FindingIPHost             = "IP address used instead of domain name"
	FindingSubdomainPattern   = "Suspicious subdomain pattern"
	FindingURLShortener       = "URL shortener detected"
	FindingSuspiciousPath     = "Suspicious path component"
)

var (
	ipv4HostPattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)

	quickSubdomainMarkers = []string{"secure-", "login-", "account-"}
	quickShorteners       = []string{"bit.ly", "tinyurl.com", "t.co", "goo.gl"}
	quickPathMarkers      = []string{"login", "signin", "account", "password", "secure", "update"}
)

// QuickCheckURL runs the cheap hover-time checks the extension shows before
// a full analysis. It returns the findings in a fixed order; an unparseable
// or relative URL yields none.
func QuickCheckURL(rawURL string) []string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || parsed.Scheme == "" || parsed.Hostname() == "" {
		return []string{}
	}

	host := strings.ToLower(parsed.Hostname())
	findings := []string{}

	if strings.EqualFold(parsed.Scheme, "http") {
		findings = append(findings, FindingInsecureConnection)
	}

	if ipv4HostPattern.MatchString(host) || strings.Contains(host, ":") {
		findings = append(findings, FindingIPHost)
	}

	if containsAny(host, quickSubdomainMarkers) {
		findings = append(findings, FindingSubdomainPattern)
	}

	for _, s := range quickShorteners {
		if host == s || strings.HasSuffix(host, "."+s) {
			findings = append(findings, FindingURLShortener)
			break
		}
	}

	if containsAny(parsed.Path, quickPathMarkers) {
		findings = append(findings, FindingSuspiciousPath)
	}

	return findings
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
