package audio

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kept characters: ASCII alphanumerics, hyphen, and the Icelandic letters
// that survive caption OCR. Everything else is stripped after spaces become
// hyphens.
var sanitizeRE = regexp.MustCompile(`[^0-9a-zA-Z\-ÁáÉéÍíÓóÚúÝýÐðÞþÆæÖö]+`)

// Sanitize turns OCR'd caption text into a filename-safe label.
func Sanitize(text string) string {
	return sanitizeRE.ReplaceAllString(strings.ReplaceAll(text, " ", "-"), "")
}

// ClipName encodes the sanitized caption and the clip bounds in minutes,
// rounded to one decimal. The classifier later pattern-matches the label part.
func ClipName(text string, startSec, endSec int) string {
	return fmt.Sprintf("%s-%s-%s.wav", Sanitize(text), minutes(startSec), minutes(endSec))
}

func minutes(sec int) string {
	return strconv.FormatFloat(math.Round(float64(sec)/60*10)/10, 'f', 1, 64)
}
