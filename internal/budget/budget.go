// Package budget provides token budget estimation for generation prompts.
// Because findai supports several LLM backends with different tokenizers, it
// uses a conservative character-based heuristic: 1 token ≈ 4 characters.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// messageOverhead is the per-message framing cost most chat APIs add.
	messageOverhead = 4

	// DefaultMaxContextTokens is the default input context budget in tokens.
	// Fits within 8k-context models while leaving room for the output.
	DefaultMaxContextTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		total += messageOverhead
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Exceeds reports whether msgs are estimated to exceed maxTokens, along with
// the estimate. A non-positive maxTokens disables the check.
func Exceeds(msgs []*schema.Message, maxTokens int) (int, bool) {
	n := EstimateMessages(msgs)
	if maxTokens <= 0 {
		return n, false
	}
	return n, n > maxTokens
}
