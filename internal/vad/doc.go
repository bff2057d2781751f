// Package vad splits decoded audio into speech segments.
//
// Audio is scored in fixed frames (10 ms by default). Frames scoring above the
// threshold are speech; a run of non-speech frames longer than the minimum
// silence closes the current segment, while shorter pauses stay inside it so
// an utterance is never fragmented mid-sentence. Segments are returned in
// start order, never overlap, and are never zero-length.
package vad
