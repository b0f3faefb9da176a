package openai

import (
	"context"

	openai "github.com/openai/openai-go/v2"
)

// ChatClientInterface is the surface the scheduler integration needs from
// an OpenAI-compatible chat backend. Satisfied by Client and by
// MockChatClient in tests.
type ChatClientInterface interface {
	ChatCompletion(ctx context.Context, req openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}
