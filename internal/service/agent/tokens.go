package agent

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var (
	tk     *tiktoken.Tiktoken
	tkErr  error
	tkOnce sync.Once
)

func getTokenizer() (*tiktoken.Tiktoken, error) {
	tkOnce.Do(func() {
		tk, tkErr = tiktoken.GetEncoding(tokenEncoding)
	})
	return tk, tkErr
}

// CountTokens measures text with the cl100k_base encoding. When the encoding
// cannot be loaded it estimates four bytes per token.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	enc, err := getTokenizer()
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}

// messageOverhead approximates the per-message framing tokens of chat APIs.
const messageOverhead = 4
