package util

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultSlug is the sentinel tenant served when nothing else resolves.
const DefaultSlug = "default"

// fallbackSlug is used when a name slugifies to nothing (e.g. "!!!").
const fallbackSlug = "business"

var (
	slugStripRe      = regexp.MustCompile(`[^\w\s-]`) // ASCII word chars only, "é" is stripped
	slugWhitespaceRe = regexp.MustCompile(`\s+`)
	slugHyphenRe     = regexp.MustCompile(`-+`)
)

// Slugify turns a business name into a URL-safe, lower-case label.
// Characters outside [A-Za-z0-9_] are removed, so "Joe's Café!!" becomes "joes-caf".
func Slugify(name string) string {
	slug := strings.TrimSpace(strings.ToLower(name))
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugWhitespaceRe.ReplaceAllString(slug, "-")
	slug = slugHyphenRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// NextFreeSlug returns base if it is free, otherwise the lowest base-N (N >= 2)
// for which isTaken reports false. The reserved default slug is never handed out.
func NextFreeSlug(base string, isTaken func(slug string) (bool, error)) (string, error) {
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for counter := 2; ; counter++ {
		if candidate != DefaultSlug {
			taken, err := isTaken(candidate)
			if err != nil {
				return "", err
			}
			if !taken {
				return candidate, nil
			}
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}
