// Package trim computes the single trim window retained from a speech
// timeline: everything from the first detected speech start to the last
// detected speech end. Interior pauses are deliberately kept.
package trim

import (
	"errors"

	"github.com/voxprep/voxprep/internal/vad"
)

// ErrNoSpeech reports that a recording contains no usable speech. It is an
// expected outcome, not a failure: the file is skipped and no output is
// produced.
var ErrNoSpeech = errors.New("trim: no speech detected")

// Window is the half-open [Start, End) time range in seconds retained after
// removing leading and trailing non-speech.
type Window struct {
	Start float64
	End   float64
}

// Duration returns the window length in seconds.
func (w Window) Duration() float64 {
	return w.End - w.Start
}

// Clamp bounds the window to [0, max] seconds.
func (w Window) Clamp(max float64) Window {
	if w.Start < 0 {
		w.Start = 0
	}
	if w.End > max {
		w.End = max
	}
	return w
}

// Resolve derives the trim window from a speech timeline: the first
// interval's start and the last interval's end. An empty timeline, or a
// degenerate one whose extremes collapse to a single instant, yields
// ErrNoSpeech.
func Resolve(tl vad.Timeline) (Window, error) {
	if len(tl) == 0 {
		return Window{}, ErrNoSpeech
	}

	w := Window{
		Start: tl[0].Start,
		End:   tl[len(tl)-1].End,
	}
	if w.End <= w.Start {
		return Window{}, ErrNoSpeech
	}

	return w, nil
}
