// Package transcription turns speech segments into ordered transcript entries.
//
// Adapter slices each segment out of the decoded stream and hands the clip
// to a Recognizer, optionally from several goroutines. Results are stored by
// segment index so output order never depends on completion order. Every
// recognizer call runs under the shared accelerator lock and inside a
// bounded retry loop for transient failures.
//
// Two recognizers are provided: WhisperXRecognizer shells out to
// `uvx whisperx` and ServerRecognizer talks to an OpenAI-compatible
// transcription endpoint.
package transcription
