package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// EndpointValidator checks the provider base URLs read from configuration
type EndpointValidator struct {
	// AllowLocalhost permits loopback hosts such as a local API gateway
	AllowLocalhost bool
	// AllowPrivateIPs permits RFC 1918 and link-local addresses
	AllowPrivateIPs bool
	// AllowPlainHTTP permits http:// for non-loopback hosts
	AllowPlainHTTP bool
	// MaxLength is the maximum allowed URL length
	MaxLength int
}

// NewEndpointValidator creates a validator with secure defaults. Loopback
// hosts stay allowed over plain http so self-hosted proxies work.
func NewEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: false,
		AllowPlainHTTP:  false,
		MaxLength:       2048,
	}
}

// NewPermissiveEndpointValidator accepts any http(s) host, for tests and
// development setups.
func NewPermissiveEndpointValidator() *EndpointValidator {
	return &EndpointValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		AllowPlainHTTP:  true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize validates an endpoint URL and returns it without a
// trailing slash.
func (v *EndpointValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}

	if strings.ContainsAny(input, "<>\"'` ") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	// Add protocol if missing
	if !strings.Contains(input, "://") {
		input = "https://" + input
	}

	parsedURL, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("URL must use http or https protocol")
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}
	if parsedURL.User != nil {
		return "", fmt.Errorf("credentials must not be embedded in the URL")
	}

	hostname := parsedURL.Hostname()
	local := isLocalhost(hostname)

	if local && !v.AllowLocalhost {
		return "", fmt.Errorf("localhost URLs are not permitted")
	}
	if !v.AllowPrivateIPs {
		if ip := net.ParseIP(hostname); ip != nil && !local && isPrivateIP(ip) {
			return "", fmt.Errorf("private IP addresses are not permitted")
		}
	}
	if parsedURL.Scheme == "http" && !local && !v.AllowPlainHTTP {
		return "", fmt.Errorf("plain http is only permitted for localhost")
	}

	if strings.Contains(parsedURL.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return "", fmt.Errorf("endpoint URL must not carry a query or fragment")
	}

	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")
	return parsedURL.String(), nil
}

// isLocalhost checks if a hostname refers to localhost
func isLocalhost(hostname string) bool {
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

// isPrivateIP checks if an IP address is in a private or link-local range
func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLoopback() || ip.IsUnspecified()
}
