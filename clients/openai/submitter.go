package openai

import (
	"context"

	openai "github.com/openai/openai-go/v2"

	"github.com/FrenchMajesty/throttle-run/scheduler"
	"github.com/FrenchMajesty/throttle-run/utils/token_counter"
)

// Provider is the scheduler key this package submits under. The scheduler
// must have been configured with a rate limit for it.
const Provider = "openai"

// Submitter routes chat completion requests through the scheduler so they
// respect the provider's rate limit and the model's concurrency bound.
//
// Requests are prioritized by estimated token count, smaller first: a batch
// of short prompts should not starve behind one huge context dump.
type Submitter struct {
	scheduler *scheduler.Scheduler
	client    ChatClientInterface
	counter   token_counter.TokenCounterInterface
}

func NewSubmitter(sched *scheduler.Scheduler, client ChatClientInterface, counter token_counter.TokenCounterInterface) *Submitter {
	return &Submitter{
		scheduler: sched,
		client:    client,
		counter:   counter,
	}
}

// SubmitChatCompletion enqueues the request and returns its task future.
// The task's Result.Value is a *openai.ChatCompletion on success.
func (s *Submitter) SubmitChatCompletion(ctx context.Context, req openai.ChatCompletionNewParams) (*scheduler.Task, error) {
	return s.SubmitChatCompletionWithPriority(ctx, req, -s.estimateTokens(req))
}

// SubmitChatCompletionWithPriority enqueues the request at an explicit
// priority, bypassing the token-count heuristic. Higher runs sooner.
func (s *Submitter) SubmitChatCompletionWithPriority(ctx context.Context, req openai.ChatCompletionNewParams, priority int) (*scheduler.Task, error) {
	return s.scheduler.AcquireForModel(Provider, string(req.Model), priority, func() (any, error) {
		return s.client.ChatCompletion(ctx, req)
	})
}

func (s *Submitter) estimateTokens(req openai.ChatCompletionNewParams) int {
	tokens, err := s.counter.CountRequestTokens(req)
	if err != nil {
		// An unmarshalable request will fail at the API call anyway;
		// treat it as highest priority so the failure surfaces fast
		return 0
	}
	return tokens
}
