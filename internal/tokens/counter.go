package tokens

import (
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates how many tokens a piece of text costs against a model's
// context window. Estimates only need to be safe for budget trimming, not
// exact billing.
type Counter interface {
	Count(text string) int
}

// Tiktoken counts with a real BPE encoding.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

func (t *Tiktoken) Count(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// NewTiktoken loads the cl100k_base encoding. Loading can fail (the encoding
// may need to be fetched), so callers should fall back to Estimator.
func NewTiktoken() (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		return nil, err
	}
	return &Tiktoken{enc: enc}, nil
}

// Estimator is a dependency-free heuristic: roughly one token per word plus
// one per four leftover runes. It overestimates slightly, which is the safe
// direction for trimming.
type Estimator struct{}

func (Estimator) Count(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	runes := utf8.RuneCountInString(text)
	est := words + runes/4
	if est == 0 {
		est = 1
	}
	return est
}

// Default returns the tiktoken counter when available, Estimator otherwise.
func Default() Counter {
	if t, err := NewTiktoken(); err == nil {
		return t
	}
	return Estimator{}
}
