package segmenter

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Entry is one block of the per-video segment log. EndSec is -1 while the
// segment is still open; the final segment of a video may stay open forever.
type Entry struct {
	Timestamp time.Time
	Score     float64
	VideoID   string
	StartSec  int
	Frame     int
	Speaker   string
	Topic     string
	EndSec    int
}

// Cue is the cut-driving view of a log entry: the caption text that labels
// the clip and the second it starts at.
type Cue struct {
	Text     string
	StartSec int
}

// Clock renders whole seconds as the log's M:SS notation.
func Clock(sec int) string {
	return fmt.Sprintf("%d:%02d", sec/60, sec%60)
}

// ParseClock converts M:SS back to whole seconds.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("bad clock value %q", s)
	}
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("bad clock value %q: %w", s, err)
	}
	sec, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("bad clock value %q: %w", s, err)
	}
	return min*60 + sec, nil
}

// WriteBlock appends one open-segment block. The End line is written later,
// by WriteEnd, when the next boundary closes this segment.
func WriteBlock(w io.Writer, e Entry) error {
	_, err := fmt.Fprintf(w,
		"\nTimestamp: %s\nSimilarity score: %s\nVideo file: %s\nStart: %s\nFrame: %d\nSpeaker: %s\nTopic: %s\n",
		e.Timestamp.Format("2006-01-02 15:04:05"),
		strconv.FormatFloat(e.Score, 'f', -1, 64),
		e.VideoID,
		Clock(e.StartSec),
		e.Frame,
		flatten(e.Speaker),
		flatten(e.Topic),
	)
	return err
}

func WriteEnd(w io.Writer, endSec int) error {
	_, err := fmt.Fprintf(w, "End: %s\n", Clock(endSec))
	return err
}

// flatten folds OCR output onto one line so a multi-line reading cannot break
// the line-oriented log format.
func flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ParseCues reads a segment log back into the ordered cue list that drives
// audio cutting. The canonical primary field is Speaker:; logs written before
// the speaker band existed used Topic: for the same role, so when a file has
// no Speaker lines at all its Topic lines are promoted to primary. Texts not
// strictly longer than minLen are dropped, mirroring the writer-side gate.
func ParseCues(r io.Reader, minLen int) ([]Cue, error) {
	var speakers, topics []string
	var starts []int

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Speaker:"):
			speakers = append(speakers, strings.TrimSpace(strings.TrimPrefix(line, "Speaker:")))
		case strings.HasPrefix(line, "Topic:"):
			topics = append(topics, strings.TrimSpace(strings.TrimPrefix(line, "Topic:")))
		case strings.HasPrefix(line, "Start:"):
			sec, err := ParseClock(strings.TrimPrefix(line, "Start:"))
			if err != nil {
				return nil, err
			}
			starts = append(starts, sec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	primary := speakers
	if len(primary) == 0 {
		primary = topics
	}

	var cues []Cue
	for i, text := range primary {
		if i >= len(starts) {
			break
		}
		if utf8.RuneCountInString(text) <= minLen {
			continue
		}
		cues = append(cues, Cue{Text: text, StartSec: starts[i]})
	}
	return cues, nil
}
