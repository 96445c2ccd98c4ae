package relay

import (
	"chatrelay/internal/tokens"

	"chatrelay/pkg/types"
)

// DefaultReplyMargin is the token headroom reserved for the model's reply
// when fitting conversation history into the context window.
const DefaultReplyMargin = 1000

// TrimMessages returns the longest suffix of msgs whose cumulative estimated
// token count, plus promptTokens and margin, stays within tokenLimit. Walking
// newest to oldest drops the oldest messages first; kept messages remain in
// their original order. The result may be empty when even the newest message
// does not fit.
func TrimMessages(c tokens.Counter, msgs []types.Message, promptTokens, tokenLimit, margin int) []types.Message {
	budget := tokenLimit - margin - promptTokens
	total := 0
	start := len(msgs)
	for i := len(msgs) - 1; i >= 0; i-- {
		cost := c.Count(msgs[i].Content)
		if total+cost > budget {
			break
		}
		total += cost
		start = i
	}
	return msgs[start:]
}
