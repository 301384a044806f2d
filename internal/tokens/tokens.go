// ABOUTME: Token counting with tiktoken's cl100k_base encoding
// ABOUTME: Falls back to a 4-characters-per-token estimate when the encoding cannot load
package tokens

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// Encoding is the tokenizer used for OpenAI embedding and chat models
const Encoding = "cl100k_base"

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Counter counts tokens in text
type Counter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

func (c *tiktokenCounter) Count(text string) int {
	if text == "" {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.enc.Encode(text, nil, nil))
}

// Estimate approximates tokens as one per four bytes
type Estimate struct{}

// Count returns the estimated token count
func (Estimate) Count(text string) int {
	return (len(text) + 3) / 4
}

var (
	defaultOnce    sync.Once
	defaultCounter Counter
)

// Default returns the shared tiktoken counter, or Estimate if the encoding fails to load
func Default() Counter {
	defaultOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(Encoding)
		if err != nil {
			defaultCounter = Estimate{}
			return
		}
		defaultCounter = &tiktokenCounter{enc: enc}
	})
	return defaultCounter
}
