package transcribe

import "context"

// Backend turns one duration-bounded WAV clip into text.
type Backend interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}
