// Package language provides language code normalization and mapping.
//
// Conversions between ISO 639-1, ISO 639-2, BCP 47 tags, and display names
// are consolidated here so the transcription, translation, and subtitle
// naming code agree on one spelling of each language.
package language
