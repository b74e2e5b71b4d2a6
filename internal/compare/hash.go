package compare

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashText returns the hex digest that identifies a document's text.
// Byte-identical input always yields the same digest; this is the sole
// basis for cache identity. A hash collision is an accepted risk given
// BLAKE2b's collision resistance and is not handled specially.
func HashText(text string) string {
	sum := blake2b.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// CanonicalText flattens a section list into the digest input. Field and
// record separators keep distinct section lists from colliding on
// concatenation.
func CanonicalText(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		b.WriteString(s.Number)
		b.WriteByte(0x1f)
		b.WriteString(s.Title)
		b.WriteByte(0x1f)
		b.WriteString(s.Text)
		b.WriteByte(0x1e)
	}
	return b.String()
}

// HashSections digests a section list.
func HashSections(sections []Section) string {
	return HashText(CanonicalText(sections))
}
