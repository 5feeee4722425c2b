// Package textutil normaliza texto en vietnamita para slugs, búsquedas y
// comparación de nombres de archivo.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "san-pham"

// Fold deja el texto en NFC y minúsculas, sin espacios al borde.
// Los nombres de archivo que llegan desde macOS vienen en NFD.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// StripDiacritics quita los signos diacríticos: "Cửa gỗ" -> "Cua go"
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
}

// Slugify convierte un nombre en un slug ASCII apto para URL
func Slugify(name string) string {
	ascii := strings.ToLower(StripDiacritics(name))

	var b strings.Builder
	dash := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// ContainsFold busca term dentro de s sin distinguir mayúsculas
func ContainsFold(s, term string) bool {
	return strings.Contains(Fold(s), Fold(term))
}
