package codec

import "unicode/utf8"

// PlainText is the human-meaningful secret content stored in a document.
type PlainText = string

// ObfuscatedText is the code-point-reversed form of PlainText shown for
// viewing and editing.
type ObfuscatedText = string

// Codec converts between plain and obfuscated text.
//
// Implementations must be pure and must satisfy
// Deobfuscate(Obfuscate(s)) == s for every valid UTF-8 string s.
type Codec interface {
	// Obfuscate returns the on-screen form of plain.
	Obfuscate(plain PlainText) ObfuscatedText

	// Deobfuscate recovers plain text from an edited on-screen value.
	Deobfuscate(text ObfuscatedText) PlainText
}

// Reverse is the default Codec. It reverses code points.
type Reverse struct{}

// Obfuscate implements Codec.
func (Reverse) Obfuscate(plain PlainText) ObfuscatedText {
	return reverse(plain)
}

// Deobfuscate implements Codec.
func (Reverse) Deobfuscate(text ObfuscatedText) PlainText {
	return reverse(text)
}

// Default is the codec used when none is configured.
var Default Codec = Reverse{}

// Obfuscate reverses the code points of plain.
func Obfuscate(plain PlainText) ObfuscatedText {
	return reverse(plain)
}

// Deobfuscate reverses the code points of text, undoing Obfuscate.
func Deobfuscate(text ObfuscatedText) PlainText {
	return reverse(text)
}

// reverse walks s from the end, copying each encoded code point (or each
// invalid byte) into place. Invalid bytes are copied verbatim instead of
// being replaced with U+FFFD.
func reverse(s string) string {
	if len(s) < 2 {
		return s
	}

	out := make([]byte, len(s))
	w := 0
	for end := len(s); end > 0; {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		if r == utf8.RuneError && size <= 1 {
			size = 1
		}
		w += copy(out[w:], s[end-size:end])
		end -= size
	}
	return string(out)
}

// Len returns the number of code points in s, counting each invalid byte as one.
// Obfuscate preserves Len for valid UTF-8.
func Len(s string) int {
	return utf8.RuneCountInString(s)
}
