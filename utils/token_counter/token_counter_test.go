package token_counter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTokenCounter(t *testing.T) {
	counter, err := NewTokenCounter()
	assert.NoError(t, err)
	assert.NotNil(t, counter)
	assert.NotNil(t, counter.encoder)
}

func TestTokenCounter_CountTextTokens(t *testing.T) {
	counter, err := NewTokenCounter()
	assert.NoError(t, err)

	assert.Equal(t, 0, counter.CountTextTokens(""))

	short := counter.CountTextTokens("hello world")
	assert.Greater(t, short, 0)

	long := counter.CountTextTokens(strings.Repeat("word ", 1000))
	assert.Greater(t, long, 900, "Long text should be roughly proportional to word count")
	assert.Greater(t, long, short)
}

func TestTokenCounter_EstimateMessageTokens(t *testing.T) {
	counter, err := NewTokenCounter()
	assert.NoError(t, err)

	// Empty content still carries role tokens plus structural overhead
	result := counter.EstimateMessageTokens("user", "")
	assert.Greater(t, result, 0)

	withContent := counter.EstimateMessageTokens("user", "Summarize this document for me")
	assert.Greater(t, withContent, result)
}

func TestTokenCounter_CountRequestTokens(t *testing.T) {
	counter, err := NewTokenCounter()
	assert.NoError(t, err)

	request := map[string]any{
		"model": "gpt-4",
		"messages": []map[string]string{
			{"role": "system", "content": "You are a helpful assistant"},
			{"role": "user", "content": "What is the capital of France?"},
		},
	}

	count, err := counter.CountRequestTokens(request)
	assert.NoError(t, err)
	assert.Greater(t, count, 10, "Serialized request should count its full JSON body")
}

func TestTokenCounter_CountRequestTokens_UnmarshalableBody(t *testing.T) {
	counter, err := NewTokenCounter()
	assert.NoError(t, err)

	_, err = counter.CountRequestTokens(func() {})
	assert.Error(t, err, "Non-serializable bodies should surface a marshal error")
}
