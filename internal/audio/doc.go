// Package audio owns the decoded audio representation shared by the pipeline.
//
// Stream holds mono float32 PCM at a fixed sample rate. Streams are produced by
// extracting a video's first audio track through ffmpeg into a 16 kHz
// pcm_s16le WAV file and decoding it with beep; clips handed to recognizers
// are encoded back to WAV the same way.
package audio
