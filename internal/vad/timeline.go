package vad

// Interval is a half-open time range [Start, End) in seconds judged to
// contain speech.
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the interval length in seconds.
func (i Interval) Duration() float64 {
	return i.End - i.Start
}

// Timeline is an ordered sequence of speech intervals, sorted ascending by
// start and pairwise non-overlapping.
type Timeline []Interval

// FillGaps merges adjacent intervals separated by a gap shorter than
// maxGap seconds. A maxGap of zero returns the timeline unchanged.
func (tl Timeline) FillGaps(maxGap float64) Timeline {
	if maxGap <= 0 || len(tl) <= 1 {
		return tl
	}

	merged := Timeline{tl[0]}
	for _, cur := range tl[1:] {
		prev := &merged[len(merged)-1]
		if cur.Start-prev.End < maxGap {
			if cur.End > prev.End {
				prev.End = cur.End
			}
		} else {
			merged = append(merged, cur)
		}
	}
	return merged
}

// DropShort removes intervals shorter than minDur seconds.
// A minDur of zero returns the timeline unchanged.
func (tl Timeline) DropShort(minDur float64) Timeline {
	if minDur <= 0 {
		return tl
	}

	kept := make(Timeline, 0, len(tl))
	for _, iv := range tl {
		if iv.Duration() >= minDur {
			kept = append(kept, iv)
		}
	}
	return kept
}
