package openai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FrenchMajesty/throttle-run/rate_limit"
	"github.com/FrenchMajesty/throttle-run/scheduler"
	"github.com/FrenchMajesty/throttle-run/utils/logger"
	"github.com/FrenchMajesty/throttle-run/utils/token_counter"
)

func newSchedulerForTest(limit rate_limit.RateLimit) *scheduler.Scheduler {
	sched := scheduler.New(scheduler.Options{
		Logger:       logger.NewNoopLogger(),
		PollInterval: 10 * time.Millisecond,
	})
	sched.Configure(map[string]rate_limit.RateLimit{
		Provider: limit,
	}, nil)
	return sched
}

func chatRequest(model, content string) openai.ChatCompletionNewParams {
	return openai.ChatCompletionNewParams{
		Model: openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(content),
		},
	}
}

func TestSubmitter_DeliversResponse(t *testing.T) {
	sched := newSchedulerForTest(rate_limit.RateLimit{Limit: 100, Window: time.Second})
	defer sched.Stop()

	response := &openai.ChatCompletion{ID: "cmpl-123"}
	req := chatRequest("gpt-4o-mini", "Say hello")

	client := NewMockChatClient()
	client.On("ChatCompletion", mock.Anything, req).Return(response, nil).Once()

	counter := token_counter.NewMockTokenCounter()
	counter.On("CountRequestTokens", mock.Anything).Return(42, nil).Once()

	submitter := NewSubmitter(sched, client, counter)

	task, err := submitter.SubmitChatCompletion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", task.Model())
	assert.Equal(t, -42, task.Priority(), "Token estimates rank smaller requests first")

	result := task.Wait()
	require.NoError(t, result.Err)
	assert.Same(t, response, result.Value)

	client.AssertExpectations(t)
	counter.AssertExpectations(t)
}

func TestSubmitter_PropagatesAPIError(t *testing.T) {
	sched := newSchedulerForTest(rate_limit.RateLimit{Limit: 100, Window: time.Second})
	defer sched.Stop()

	apiErr := errors.New("openai chat completion: 429 too many requests")

	client := NewMockChatClient()
	client.On("ChatCompletion", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	counter := token_counter.NewMockTokenCounter()
	counter.On("CountRequestTokens", mock.Anything).Return(10, nil).Once()

	submitter := NewSubmitter(sched, client, counter)

	task, err := submitter.SubmitChatCompletion(context.Background(), chatRequest("gpt-4o", "hi"))
	require.NoError(t, err)

	result := task.Wait()
	assert.ErrorIs(t, result.Err, apiErr)
	assert.Nil(t, result.Value)
	client.AssertExpectations(t)
}

func TestSubmitter_SmallRequestsRunBeforeLargeOnes(t *testing.T) {
	// One token up front, then one per 150ms, so the backlog is drained
	// strictly in priority order
	sched := newSchedulerForTest(rate_limit.RateLimit{Limit: 1, Window: 150 * time.Millisecond})
	defer sched.Stop()

	var mu sync.Mutex
	var order []string

	client := NewMockChatClient()
	client.On("ChatCompletion", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			req := args.Get(1).(openai.ChatCompletionNewParams)
			mu.Lock()
			order = append(order, string(req.Model))
			mu.Unlock()
		}).
		Return(&openai.ChatCompletion{}, nil)

	counter := token_counter.NewMockTokenCounter()
	counter.On("CountRequestTokens", mock.Anything).Return(50, nil).Once()
	counter.On("CountRequestTokens", mock.Anything).Return(9000, nil).Once()
	counter.On("CountRequestTokens", mock.Anything).Return(120, nil).Once()

	submitter := NewSubmitter(sched, client, counter)

	first, err := submitter.SubmitChatCompletion(context.Background(), chatRequest("filler", "warm up"))
	require.NoError(t, err)

	// Let the scheduler spend its initial token on the filler
	time.Sleep(30 * time.Millisecond)

	large, err := submitter.SubmitChatCompletion(context.Background(), chatRequest("large", "huge context dump"))
	require.NoError(t, err)
	small, err := submitter.SubmitChatCompletion(context.Background(), chatRequest("small", "quick question"))
	require.NoError(t, err)

	first.Wait()
	large.Wait()
	small.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"filler", "small", "large"}, order)
}

func TestSubmitter_ExplicitPriorityOverridesEstimate(t *testing.T) {
	sched := newSchedulerForTest(rate_limit.RateLimit{Limit: 100, Window: time.Second})
	defer sched.Stop()

	client := NewMockChatClient()
	client.On("ChatCompletion", mock.Anything, mock.Anything).Return(&openai.ChatCompletion{}, nil)

	// The counter must not be consulted at all
	counter := token_counter.NewMockTokenCounter()

	submitter := NewSubmitter(sched, client, counter)

	task, err := submitter.SubmitChatCompletionWithPriority(context.Background(), chatRequest("gpt-4o", "urgent"), 500)
	require.NoError(t, err)
	assert.Equal(t, 500, task.Priority())

	require.NoError(t, task.Wait().Err)
	counter.AssertNotCalled(t, "CountRequestTokens", mock.Anything)
}

func TestSubmitter_UnconfiguredProviderFailsFast(t *testing.T) {
	sched := scheduler.New(scheduler.Options{Logger: logger.NewNoopLogger()})
	defer sched.Stop()

	counter := token_counter.NewMockTokenCounter()
	counter.On("CountRequestTokens", mock.Anything).Return(10, nil)

	submitter := NewSubmitter(sched, NewMockChatClient(), counter)

	task, err := submitter.SubmitChatCompletion(context.Background(), chatRequest("gpt-4o", "hi"))
	assert.Nil(t, task)

	var unconfigured *scheduler.UnconfiguredProviderError
	require.ErrorAs(t, err, &unconfigured)
	assert.Equal(t, Provider, unconfigured.Provider)
}
