package rate_limit

import "time"

// RateLimit defines the admission budget for one provider: Limit requests
// per Window, enforced as a long-run average via continuous token refill.
type RateLimit struct {
	Limit  int           // Requests admitted per window
	Window time.Duration // Length of the averaging window
}

// OpenAIRateLimit defines the default rate limit for the OpenAI API
var OpenAIRateLimit = RateLimit{
	Limit:  10 * 1000 * 9 / 10, // 10K RPM with 10% buffer to stay under the limit
	Window: time.Minute,
}

// AnthropicRateLimit defines the default rate limit for the Anthropic API
var AnthropicRateLimit = RateLimit{
	Limit:  4 * 1000 * 9 / 10, // 4K RPM with 10% buffer to stay under the limit
	Window: time.Minute,
}

// GroqRateLimit defines the default rate limit for the Groq API
var GroqRateLimit = RateLimit{
	Limit:  1 * 1000 * 9 / 10, // 1K RPM with 10% buffer to stay under the limit
	Window: time.Minute,
}
