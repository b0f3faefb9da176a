package openai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Client wraps the official OpenAI SDK behind ChatClientInterface.
type Client struct {
	client openai.Client
}

// Ensure Client implements ChatClientInterface
var _ ChatClientInterface = (*Client)(nil)

// NewClient creates a Client with an explicit API key.
func NewClient(apiKey string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
	}
}

// NewClientFromEnv creates a Client using the OPENAI_API_KEY environment
// variable.
func NewClientFromEnv() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	return NewClient(apiKey), nil
}

// ChatCompletion executes a single chat completion request.
func (c *Client) ChatCompletion(ctx context.Context, req openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	response, err := c.client.Chat.Completions.New(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	return response, nil
}
