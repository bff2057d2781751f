// Package subtitles assembles transcript entries into SubRip documents.
//
// Assemble numbers cues densely from 1, normalizes cue text, and clamps or
// trims timings. The same entries rendered through the Original and
// Translated selectors yield documents with identical numbering and
// timings. ParseSRT, Validate, and CheckParity read documents back and
// check them.
package subtitles
