// Package codec provides the reversible text transform used to display
// secret note content.
//
// The transform reverses the order of the Unicode code points in a string.
// It is self-inverse: applying it twice yields the original text, so the
// same function serves both directions. Obfuscate and Deobfuscate exist as
// separate names so call sites read as what they mean:
//
//	display := codec.Obfuscate(plain)      // shown to the user
//	plain = codec.Deobfuscate(edited)      // written back to the document
//
// # Granularity
//
// Reversal happens at the code-point level, not the grapheme-cluster level.
// Combining sequences such as "é" or emoji with skin-tone modifiers
// are split apart and their parts reordered, which can make complex scripts
// look corrupted while obfuscated. Grapheme-level reversal is not an
// involution (regional-indicator pairs re-segment differently once
// reversed), so the code-point contract is kept.
//
// Text is expected to be valid UTF-8. Bytes that are not are each treated
// as a single unit and copied through rather than replaced with U+FFFD, so no
// input is lost. The involution only holds for valid UTF-8: reversing stray
// bytes can assemble them into a valid sequence.
//
// The codec holds no state. Every function is safe for concurrent use.
package codec
