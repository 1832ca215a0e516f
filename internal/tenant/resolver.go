// Package tenant maps incoming requests and slugs to business configuration.
package tenant

import (
	"net"
	"regexp"
	"strings"

	"github.com/ikkim/reviewfunnel-backend/pkg/util"
)

// hashSegmentRe is one dash-separated part of a hosting-platform preview label
// such as "reviewtool7x-9kq2m4bd1z".
var hashSegmentRe = regexp.MustCompile(`^[a-z0-9]{10,}$`)

// IsDeploymentSubdomain is the single rule for ignoring auto-generated subdomains.
// The first two segments must both be 10+ alphanumerics and one of them must
// carry a digit, so "bloomington-steakhouse-2" is still a tenant.
func IsDeploymentSubdomain(label string) bool {
	parts := strings.SplitN(strings.ToLower(label), "-", 3)
	if len(parts) < 2 {
		return false
	}
	first, second := parts[0], parts[1]
	if !hashSegmentRe.MatchString(first) || !hashSegmentRe.MatchString(second) {
		return false
	}
	return strings.ContainsAny(first+second, "0123456789")
}

// RoutableSlug rewrites a slug that would be mistaken for a deployment
// subdomain by joining its leading segments until it no longer matches.
func RoutableSlug(slug string) string {
	for IsDeploymentSubdomain(slug) {
		slug = strings.Replace(slug, "-", "", 1)
	}
	return slug
}

// ResolveSlug derives the tenant slug for a request. A non-empty override
// (the ?biz= query parameter) always wins. Otherwise the first label of a host
// with more than two labels is used unless it is a deployment subdomain.
func ResolveSlug(override, host string) string {
	if o := strings.TrimSpace(override); o != "" {
		return strings.ToLower(o)
	}

	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if host == "" || net.ParseIP(host) != nil {
		return util.DefaultSlug
	}

	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return util.DefaultSlug
	}

	candidate := labels[0]
	if candidate == "" || IsDeploymentSubdomain(candidate) {
		return util.DefaultSlug
	}
	return candidate
}

// BaseDomain strips the first label from host, "cafe.blooreview.app" -> "blooreview.app".
// Hosts without a dot fall back to the configured domain.
func BaseDomain(host, fallback string) string {
	host = strings.TrimSpace(host)
	idx := strings.Index(host, ".")
	if idx < 0 || idx == len(host)-1 {
		return fallback
	}
	return host[idx+1:]
}

// PublicURL is the review page address for slug under the request host's base domain.
func PublicURL(slug, host, fallbackDomain string) string {
	return "https://" + slug + "." + BaseDomain(host, fallbackDomain)
}
