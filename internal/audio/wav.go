package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"dualsub/internal/services"
)

const decodeChunk = 4096

// DecodeWAV reads a PCM WAV stream, downmixing multi-channel audio to mono.
func DecodeWAV(r io.Reader) (Stream, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		return Stream{}, &services.AudioError{Reason: "decode wav", Err: err}
	}
	defer streamer.Close()

	rate := int(format.SampleRate)
	if rate <= 0 {
		return Stream{}, &services.AudioError{Reason: "wav header has non-positive sample rate"}
	}
	mono := format.NumChannels == 1

	samples := make([]float32, 0, max(streamer.Len(), 0))
	buf := make([][2]float64, decodeChunk)
	for {
		n, ok := streamer.Stream(buf)
		for i := 0; i < n; i++ {
			if mono {
				samples = append(samples, float32(buf[i][0]))
			} else {
				samples = append(samples, float32((buf[i][0]+buf[i][1])/2))
			}
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Stream{}, &services.AudioError{Reason: "read wav samples", Err: err}
	}

	stream := Stream{Samples: samples, SampleRate: rate}
	if err := stream.Validate(); err != nil {
		return Stream{}, err
	}
	return stream, nil
}

// ReadWAVFile decodes the WAV file at path.
func ReadWAVFile(path string) (Stream, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Stream{}, &services.AudioError{Reason: "wav file missing", Err: err}
		}
		return Stream{}, &services.IOError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()
	return DecodeWAV(file)
}

// EncodeWAV writes s as 16-bit mono PCM.
func EncodeWAV(w io.WriteSeeker, s Stream) error {
	if s.SampleRate <= 0 {
		return &services.AudioError{Reason: "encode wav: non-positive sample rate"}
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(s.SampleRate),
		NumChannels: 1,
		Precision:   2,
	}
	pos := 0
	streamer := beep.StreamerFunc(func(buf [][2]float64) (int, bool) {
		if pos >= len(s.Samples) {
			return 0, false
		}
		n := copy32(buf, s.Samples[pos:])
		pos += n
		return n, true
	})
	if err := wav.Encode(w, streamer, format); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	return nil
}

// WriteWAVFile encodes s to a new file at path.
func WriteWAVFile(path string, s Stream) error {
	file, err := os.Create(path)
	if err != nil {
		return &services.IOError{Op: "create", Path: path, Err: err}
	}
	if err := EncodeWAV(file, s); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return &services.IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

func copy32(dst [][2]float64, src []float32) int {
	n := min(len(dst), len(src))
	for i := 0; i < n; i++ {
		v := float64(src[i])
		dst[i][0] = v
		dst[i][1] = v
	}
	return n
}

// WAVBytes encodes s as an in-memory WAV file for upload.
func WAVBytes(s Stream) ([]byte, error) {
	var buf seekBuffer
	if err := EncodeWAV(&buf, s); err != nil {
		return nil, err
	}
	return buf.data, nil
}

// seekBuffer is the minimal io.WriteSeeker the WAV encoder needs to patch
// its header after streaming samples.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	end := b.pos + len(p)
	if end > len(b.data) {
		b.data = append(b.data, make([]byte, end-len(b.data))...)
	}
	copy(b.data[b.pos:end], p)
	b.pos = end
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(b.pos) + offset
	case io.SeekEnd:
		next = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("seek: negative position %d", next)
	}
	b.pos = int(next)
	return next, nil
}
