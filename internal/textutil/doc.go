// Package textutil provides text processing utilities for subtitle cue text
// and filename sanitization.
//
// Cue normalization composes text to Unicode NFC, converts CRLF line endings,
// trims each line, and drops blank lines so a cue never terminates early when
// rendered as SRT.
package textutil
