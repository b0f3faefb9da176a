package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"

	openaiclient "github.com/FrenchMajesty/throttle-run/clients/openai"
	"github.com/FrenchMajesty/throttle-run/config"
	"github.com/FrenchMajesty/throttle-run/rate_limit"
	"github.com/FrenchMajesty/throttle-run/scheduler"
	"github.com/FrenchMajesty/throttle-run/utils/logger"
	"github.com/FrenchMajesty/throttle-run/utils/token_counter"
)

// MockChatClient simulates an OpenAI backend for demo purposes
type MockChatClient struct{}

func (m *MockChatClient) ChatCompletion(ctx context.Context, req openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	// Simulate processing time (100ms to 800ms)
	time.Sleep(time.Duration(100+rand.Intn(700)) * time.Millisecond)

	// Simulate occasional errors (10% failure rate)
	if rand.Float32() < 0.1 {
		return nil, fmt.Errorf("mock API failure: model is currently overloaded")
	}

	return &openai.ChatCompletion{
		ID:    fmt.Sprintf("cmpl-%d", rand.Intn(100000)),
		Model: string(req.Model),
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Mock response"}},
		},
	}, nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML settings file")
	flag.Parse()

	fmt.Println("🚦 ThrottleRun Scheduler Demo")
	fmt.Println("=============================")

	sched := scheduler.New(scheduler.Options{
		Logger: logger.NewStdoutLogger(),
	})
	defer sched.Stop()

	// Tight demo limits so the pacing is visible; a settings file
	// overrides them
	limits := map[string]rate_limit.RateLimit{
		"openai": {Limit: 2, Window: time.Second},
	}
	concurrency := map[string]int{
		"openai:gpt-4o-mini": 2,
	}
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		limits = cfg.RateLimits()
		concurrency = cfg.ModelConcurrency()
	}
	sched.Configure(limits, concurrency)

	// Stream lifecycle events as they happen
	go func() {
		for event := range sched.Events() {
			fmt.Printf("  ▸ %-15s %s\n", event.Type, event.TaskID)
		}
	}()

	counter, err := token_counter.NewTokenCounter()
	if err != nil {
		log.Fatalf("failed to initialize token counter: %v", err)
	}
	submitter := openaiclient.NewSubmitter(sched, &MockChatClient{}, counter)

	prompts := []string{
		"Summarize this paragraph",
		"Translate 'hello' to French",
		strings.Repeat("Analyze this long document section. ", 40),
		"What is 2+2?",
		strings.Repeat("Review the following code carefully. ", 25),
		"Name three colors",
	}

	fmt.Printf("\n📬 Submitting %d chat completions...\n", len(prompts))
	start := time.Now()

	var tasks []*scheduler.Task
	for _, prompt := range prompts {
		req := openai.ChatCompletionNewParams{
			Model: openai.ChatModelGPT4oMini,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
		}
		task, err := submitter.SubmitChatCompletion(context.Background(), req)
		if err != nil {
			log.Fatalf("failed to submit request: %v", err)
		}
		tasks = append(tasks, task)
	}

	// An opportunistic probe: runs only if a token happens to be free
	ran, _ := sched.TryAcquire("openai", func() (any, error) {
		fmt.Println("  ▸ opportunistic probe ran immediately")
		return nil, nil
	})
	if !ran {
		fmt.Println("  ▸ opportunistic probe skipped, bucket empty")
	}

	succeeded, failed := 0, 0
	for _, task := range tasks {
		if result := task.Wait(); result.Err != nil {
			failed++
		} else {
			succeeded++
		}
	}

	fmt.Printf("\n✅ Done in %s: %d succeeded, %d failed\n", time.Since(start).Round(time.Millisecond), succeeded, failed)

	stats := sched.GetStats()
	for name, provider := range stats.Providers {
		fmt.Printf("📊 %s: tokens=%.1f/%d launched=%d completed=%d failed=%d\n",
			name, provider.Tokens, provider.Limit, provider.Launched, provider.Completed, provider.Failed)
	}
}
