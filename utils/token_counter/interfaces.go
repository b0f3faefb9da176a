package token_counter

type TokenCounterInterface interface {
	CountTextTokens(text string) int
	EstimateMessageTokens(role, content string) int
	CountRequestTokens(request any) (int, error)
}
