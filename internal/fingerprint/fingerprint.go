// Package fingerprint derives a stable content hash for a text, used by
// the importer to recognize texts it has already imported.
package fingerprint

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize joins the title and line texts after cleaning each part: trim
// whitespace, lowercase, and normalize line endings. Pronunciations and
// translations are deliberately excluded so fixing a gloss in the source
// file does not make the text look new.
func Normalize(title string, lines []string) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	parts := make([]string, 0, len(lines)+1)
	parts = append(parts, normalizePart(title))
	for _, l := range lines {
		parts = append(parts, normalizePart(l))
	}

	// Joining with a newline keeps fields separated, so "title" + "line"
	// can never collide with "titleline".
	return strings.Join(parts, "\n")
}

// Hash normalizes the content and returns its SHA-256 as a hex string.
func Hash(title string, lines []string) string {
	normalized := Normalize(title, lines)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
