package openai

import (
	"context"

	openai "github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/mock"
)

type MockChatClient struct {
	mock.Mock
}

// Ensure MockChatClient implements ChatClientInterface
var _ ChatClientInterface = (*MockChatClient)(nil)

func NewMockChatClient() *MockChatClient {
	return &MockChatClient{}
}

func (m *MockChatClient) ChatCompletion(ctx context.Context, req openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*openai.ChatCompletion), args.Error(1)
}
