package catalog

import (
	"regexp"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Slugify derives a URL slug from a display name
func Slugify(name string) string {
	s := nonSlugChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return strings.Trim(s, "-")
}

// ValidateSlug checks that a slug is lowercase a-z, 0-9 and single hyphens
func ValidateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(slug) > 200 {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 200 characters")
	}
	if !slugPattern.MatchString(slug) {
		return shared.NewDomainError("INVALID_SLUG", "Slug can only contain lowercase letters, numbers and single hyphens")
	}
	return nil
}
