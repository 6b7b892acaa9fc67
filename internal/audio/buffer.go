// Package audio provides the codec adapter for reading, converting, slicing
// and exporting speech recordings as mono PCM.
package audio

// Buffer holds a decoded recording as normalized mono samples.
// Samples are float64 values in [-1, 1] at the file's native sample rate.
// A Buffer is constructed by Decode and not modified afterwards.
type Buffer struct {
	// Data is the mono sample sequence.
	Data []float64
	// SampleRate is the native sample rate in Hz.
	SampleRate int
}

// Frames returns the number of sample frames in the buffer.
func (b *Buffer) Frames() int {
	return len(b.Data)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.SampleRate)
}
