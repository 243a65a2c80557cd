package ocr

// Reading is the result of one OCR pass over a caption band. A frame with no
// readable caption yields NoReading, never an error.
type Reading struct {
	ok   bool
	text string
}

func NoReading() Reading {
	return Reading{}
}

func TextReading(s string) Reading {
	return Reading{ok: true, text: s}
}

func (r Reading) OK() bool {
	return r.ok
}

// Text is the raw OCR output, untrimmed beyond what the engine itself emits.
func (r Reading) Text() string {
	return r.text
}
