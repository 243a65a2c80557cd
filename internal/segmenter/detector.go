package segmenter

import (
	"unicode/utf8"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// Detector decides whether a freshly OCR'd caption starts a new segment.
// OCR of the same on-screen caption across consecutive sampled frames is
// rarely byte-identical, so equality is useless; a similarity ratio absorbs
// the antialiasing noise while still catching genuine caption changes.
type Detector struct {
	MinLen    int     // candidate must be strictly longer (filters OCR noise)
	MaxLen    int     // candidate must be strictly shorter (filters multi-line bleed)
	Threshold float64 // change requires score strictly below this

	metric *metrics.RatcliffObershelp
}

func NewDetector(minLen, maxLen int, threshold float64) *Detector {
	return &Detector{
		MinLen:    minLen,
		MaxLen:    maxLen,
		Threshold: threshold,
		metric:    metrics.NewRatcliffObershelp(),
	}
}

// Score returns the symmetric matching-block similarity of a and b in [0,1].
// Identical strings score 1; a non-empty string scores 0 against the empty
// string, so the very first caption of a video always passes the similarity
// gate.
func (d *Detector) Score(a, b string) float64 {
	switch {
	case a == "" && b == "":
		return 1
	case a == "" || b == "":
		return 0
	}
	return strutil.Similarity(a, b, d.metric)
}

// HasChanged reports whether candidate begins a new segment against the
// active caption, along with the score used for the decision (kept for the
// audit log). Both gates are strict.
func (d *Detector) HasChanged(active, candidate string) (bool, float64) {
	score := d.Score(active, candidate)
	n := utf8.RuneCountInString(candidate)
	if n <= d.MinLen || n >= d.MaxLen {
		return false, score
	}
	return score < d.Threshold, score
}
