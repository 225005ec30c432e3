package notification

import "strings"

// StripMarkup reduces a body-markup string to plain text: tags are
// dropped and the five entities from the notification spec are decoded.
// Malformed markup degrades gracefully; an unterminated tag is dropped
// to its end.
func StripMarkup(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inTag := false
	for _, r := range s {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return replacer.Replace(out)
}
