package token_counter

import (
	"encoding/json"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// tokenCounterImpl provides utilities for estimating how many LLM tokens a
// request will consume. Adapters use the estimate to prioritize small
// requests ahead of large ones when submitting work to the scheduler.
type tokenCounterImpl struct {
	encoder *tiktoken.Tiktoken
}

var encodingBase = "cl100k_base"

// NewTokenCounter creates a new TokenCounter instance
func NewTokenCounter() (*tokenCounterImpl, error) {
	// Use cl100k_base encoding (used by GPT-4, GPT-3.5-turbo, and text-embedding-ada-002)
	encoder, err := tiktoken.GetEncoding(encodingBase)
	if err != nil {
		return nil, fmt.Errorf("failed to get tiktoken encoding: %w", err)
	}

	return &tokenCounterImpl{
		encoder: encoder,
	}, nil
}

// CountTextTokens counts tokens in plain text using tiktoken
func (tc *tokenCounterImpl) CountTextTokens(text string) int {
	tokens := tc.encoder.Encode(text, nil, nil)
	return len(tokens)
}

// EstimateMessageTokens estimates tokens for a single chat message given its
// role and content, including the fixed per-message structural overhead
func (tc *tokenCounterImpl) EstimateMessageTokens(role, content string) int {
	totalTokens := len(tc.encoder.Encode(role, nil, nil))
	totalTokens += len(tc.encoder.Encode(content, nil, nil))

	// Overhead for message structure (based on OpenAI's token counting methodology)
	totalTokens += 4

	return totalTokens
}

// CountRequestTokens estimates the total token count for an arbitrary
// request body by counting its JSON serialization
func (tc *tokenCounterImpl) CountRequestTokens(request any) (int, error) {
	bodyString, err := json.Marshal(request)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	return tc.CountTextTokens(string(bodyString)), nil
}
