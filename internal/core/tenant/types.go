package tenant

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

// ValidateSlug checks the URL-safe organisation identifier.
func ValidateSlug(slug string) error {
	if len(slug) < 2 || len(slug) > 63 || !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	return nil
}

// Slugify derives a slug from an organisation name,
// e.g. "Piekarnia Żółw Sp. z o.o." becomes "piekarnia-zolw-sp-z-o-o".
func Slugify(name string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		polishLetters.Replace(name),
	)
	if err != nil {
		stripped = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if len(slug) > 63 {
		slug = strings.TrimSuffix(slug[:63], "-")
	}
	return slug
}

// ł does not decompose under NFD.
var polishLetters = strings.NewReplacer("ł", "l", "Ł", "L")
