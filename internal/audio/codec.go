package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Static error kinds for the codec adapter. Callers classify failures with
// errors.Is against these sentinels.
var (
	// ErrDecode is returned when a source file is unreadable or corrupt.
	ErrDecode = errors.New("audio: decode failed")
	// ErrEncode is returned when writing an output file fails.
	ErrEncode = errors.New("audio: encode failed")
	// ErrRange is returned when a slice window is empty or out of bounds
	// after time-to-frame rounding.
	ErrRange = errors.New("audio: invalid slice range")
)

const (
	// maxInt16 is the scale factor between normalized float samples and
	// 16-bit fixed-point PCM.
	maxInt16 = 32767

	outputBitDepth = 16
)

// Decode reads the WAV file at path into a normalized mono Buffer.
// Multi-channel input is downmixed by averaging; the native sample rate is
// preserved. Failures wrap ErrDecode.
func Decode(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrDecode, path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", ErrDecode, path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read PCM from %s: %v", ErrDecode, path, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: %s has no sample rate", ErrDecode, path)
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("%w: %s has no channels", ErrDecode, path)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = outputBitDepth
	}
	scale := float64(int(1) << (bitDepth - 1))

	frames := len(buf.Data) / channels
	data := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch])
		}
		data[i] = sum / float64(channels) / scale
	}

	return &Buffer{
		Data:       data,
		SampleRate: buf.Format.SampleRate,
	}, nil
}

// ToFixedPoint converts a normalized float buffer to 16-bit fixed-point PCM.
// Samples are clamped to [-1, 1] and rounded to the nearest integer value.
// The conversion is lossy and one-directional.
func ToFixedPoint(buf *Buffer) *gaudio.IntBuffer {
	data := make([]int, len(buf.Data))
	for i, s := range buf.Data {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		data[i] = int(math.Round(s * maxInt16))
	}

	return &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: 1,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: outputBitDepth,
	}
}

// Slice returns the sub-range [startSec, endSec) of a mono fixed-point
// buffer. Window boundaries are converted to frame offsets with
// round(time × rate). Returns ErrRange when the window is empty after
// rounding or lies outside the buffer; callers are expected to clamp first.
func Slice(fixed *gaudio.IntBuffer, startSec, endSec float64) (*gaudio.IntBuffer, error) {
	rate := fixed.Format.SampleRate
	start := int(math.Round(startSec * float64(rate)))
	end := int(math.Round(endSec * float64(rate)))

	if end <= start {
		return nil, fmt.Errorf("%w: [%d, %d) is empty after rounding", ErrRange, start, end)
	}
	if start < 0 || end > len(fixed.Data) {
		return nil, fmt.Errorf("%w: [%d, %d) outside buffer of %d frames", ErrRange, start, end, len(fixed.Data))
	}

	return &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: fixed.Format.NumChannels,
			SampleRate:  rate,
		},
		Data:           fixed.Data[start:end],
		SourceBitDepth: fixed.SourceBitDepth,
	}, nil
}

// Export writes a fixed-point buffer to path as a 16-bit PCM WAV file,
// creating missing parent directories and truncating any existing file.
// Failures wrap ErrEncode.
func Export(fixed *gaudio.IntBuffer, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: create output directory: %v", ErrEncode, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrEncode, path, err)
	}

	enc := wav.NewEncoder(f, fixed.Format.SampleRate, outputBitDepth, fixed.Format.NumChannels, 1)
	if err := enc.Write(fixed); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("%w: write %s: %v", ErrEncode, path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: finalize %s: %v", ErrEncode, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrEncode, path, err)
	}

	return nil
}
